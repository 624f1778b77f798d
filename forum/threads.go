package forum

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stufor/stufor/models"
	"github.com/stufor/stufor/utils"
)

const (
	TitleMinLen = 5
	TitleMaxLen = 50
	BodyMinLen  = 15
	BodyMaxLen  = 8000

	// Edits inside this window after creation are treated as typo fixes and
	// leave no visible "edited" marker.
	editGraceWindow = 2 * time.Minute
)

// Service implements the thread/post lifecycle and discovery queries.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a Service. The clock defaults to time.Now.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func (s *Service) validateTitle(title string) error {
	if n := len([]rune(title)); n < TitleMinLen || n > TitleMaxLen {
		return invalid("title", "title must be %d-%d characters", TitleMinLen, TitleMaxLen)
	}
	return nil
}

func (s *Service) validateBody(body string) error {
	if n := len([]rune(body)); n < BodyMinLen || n > BodyMaxLen {
		return invalid("body", "post body must be %d-%d characters", BodyMinLen, BodyMaxLen)
	}
	return nil
}

// CreateThread persists a thread and its first post as one logical unit. The
// store offers no multi-row atomicity guarantee for this path, so a first-post
// failure triggers a compensating delete of the thread instead of a rollback.
func (s *Service) CreateThread(ctx context.Context, category, title, body string, author *models.User) (*models.Thread, error) {
	title = utils.Sanitize(strings.TrimSpace(title))
	body = utils.Sanitize(strings.TrimSpace(body))

	if !models.ValidCategory(category) {
		return nil, invalid("category", "unknown category %q", category)
	}
	if err := s.validateTitle(title); err != nil {
		return nil, err
	}
	if err := s.validateBody(body); err != nil {
		return nil, err
	}

	now := s.now()
	thread := &models.Thread{
		Title:        title,
		AuthorID:     author.ID,
		AuthorName:   author.Username,
		Category:     category,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := s.db.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, err
	}

	post := &models.Post{
		ThreadID:   thread.ID,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Body:       body,
		CreatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		// Compensating action: never leave an orphan thread behind. A failure
		// here is logged and the original error still wins.
		if delErr := s.db.WithContext(ctx).Delete(&models.Thread{}, thread.ID).Error; delErr != nil {
			if utils.Sugar != nil {
				utils.Sugar.Errorf("thread %d rollback failed after first-post error: %v", thread.ID, delErr)
			}
		}
		return nil, err
	}

	if err := s.incrementPostCount(ctx, author.ID, 1); err != nil {
		return nil, err
	}
	thread.Posts = []models.Post{*post}
	return thread, nil
}

// AddPost appends a post to a thread in arrival order and bumps LastModified.
func (s *Service) AddPost(ctx context.Context, threadID uint, body string, author *models.User) (*models.Post, error) {
	body = utils.Sanitize(strings.TrimSpace(body))
	if err := s.validateBody(body); err != nil {
		return nil, err
	}

	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ThreadID:   thread.ID,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Body:       body,
		CreatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Thread{}).
		Where("id = ?", thread.ID).
		UpdateColumn("last_modified", now).Error; err != nil {
		return nil, err
	}
	if err := s.incrementPostCount(ctx, author.ID, 1); err != nil {
		return nil, err
	}
	return post, nil
}

// EditPost replaces a post body. Only the author may edit; ModifiedAt is set
// only when the grace window has already elapsed.
func (s *Service) EditPost(ctx context.Context, postID uint, newBody string, requester *models.User) (*models.Post, error) {
	newBody = utils.Sanitize(strings.TrimSpace(newBody))
	if err := s.validateBody(newBody); err != nil {
		return nil, err
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != requester.ID {
		return nil, ErrPermission
	}

	now := s.now()
	post.Body = newBody
	if now.Sub(post.CreatedAt) >= editGraceWindow {
		post.ModifiedAt = &now
	}
	if err := s.db.WithContext(ctx).Save(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post, detaches it from its thread and decrements the
// author's post count. Owners delete without a reason; admins must supply one,
// which is committed to the deletion log before the delete.
func (s *Service) DeletePost(ctx context.Context, postID uint, requester *models.User, reason string) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authorizeDeletion(ctx, post.AuthorID, requester, models.EntityPost, post.ID, reason); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Post{}, post.ID).Error; err != nil {
		return err
	}
	return s.incrementPostCount(ctx, post.AuthorID, -1)
}

// DeleteThread removes a thread and cascades over every contained post as
// explicit synchronous steps: log first, then posts (decrementing each post
// author's count), then the thread row.
func (s *Service) DeleteThread(ctx context.Context, threadID uint, requester *models.User, reason string) error {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return err
	}
	if err := s.authorizeDeletion(ctx, thread.AuthorID, requester, models.EntityThread, thread.ID, reason); err != nil {
		return err
	}

	var posts []models.Post
	if err := s.db.WithContext(ctx).Where("thread_id = ?", thread.ID).Find(&posts).Error; err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Where("thread_id = ?", thread.ID).Delete(&models.Post{}).Error; err != nil {
		return err
	}
	perAuthor := map[uint]int{}
	for _, p := range posts {
		perAuthor[p.AuthorID]++
	}
	for authorID, n := range perAuthor {
		if err := s.incrementPostCount(ctx, authorID, -n); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Delete(&models.Thread{}, thread.ID).Error
}

// authorizeDeletion enforces the owner-or-admin rule and writes the moderation
// log for admin deletes before anything is removed.
func (s *Service) authorizeDeletion(ctx context.Context, ownerID uint, requester *models.User, kind string, entityID uint, reason string) error {
	if requester.ID == ownerID {
		return nil
	}
	if !requester.IsAdmin {
		return ErrPermission
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	entry := &models.DeletionLog{
		EntityKind:    kind,
		EntityID:      entityID,
		ModeratorID:   requester.ID,
		ModeratorName: requester.Username,
		Reason:        utils.Sanitize(reason),
		CreatedAt:     s.now(),
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// GetThread loads a thread with its posts in arrival order.
func (s *Service) GetThread(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB { return db.Order("posts.id ASC") }).
		First(&thread, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// GetPost loads a single post.
func (s *Service) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Service) incrementPostCount(ctx context.Context, userID uint, delta int) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("post_count", gorm.Expr("post_count + ?", delta)).Error
}
