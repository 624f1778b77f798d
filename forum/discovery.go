package forum

import (
	"context"
	"strings"

	"github.com/stufor/stufor/models"
)

// ListRecentThreads returns up to limit threads ordered by last activity.
func (s *Service) ListRecentThreads(ctx context.Context, limit int) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.db.WithContext(ctx).
		Order("last_modified DESC").
		Limit(clampLimit(limit)).
		Find(&threads).Error
	return threads, err
}

// ListPopularThreads orders by post count, computed at query time rather than
// read from any cached counter.
func (s *Service) ListPopularThreads(ctx context.Context, limit int) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.db.WithContext(ctx).
		Order("(SELECT COUNT(*) FROM posts WHERE posts.thread_id = threads.id) DESC").
		Order("last_modified DESC").
		Limit(clampLimit(limit)).
		Find(&threads).Error
	return threads, err
}

// ListByCategory filters by category name, newest activity first. Names
// outside the fixed set are a NotFound, matching the category page contract.
func (s *Service) ListByCategory(ctx context.Context, name string, limit int) ([]models.Thread, error) {
	if !models.ValidCategory(name) {
		return nil, ErrNotFound
	}
	var threads []models.Thread
	err := s.db.WithContext(ctx).
		Where("category = ?", name).
		Order("last_modified DESC").
		Limit(clampLimit(limit)).
		Find(&threads).Error
	return threads, err
}

// Search performs a case-insensitive substring match on thread titles. An
// empty query matches all threads; authorFilter, when set, restricts results
// to threads started by that exact username.
func (s *Service) Search(ctx context.Context, query, authorFilter string) ([]models.Thread, error) {
	q := s.db.WithContext(ctx).Model(&models.Thread{})
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if authorFilter = strings.TrimSpace(authorFilter); authorFilter != "" {
		q = q.Where("author_name = ?", authorFilter)
	}
	var threads []models.Thread
	err := q.Order("last_modified DESC").Find(&threads).Error
	return threads, err
}

// PostCounts returns the number of posts per thread for listing pages.
func (s *Service) PostCounts(ctx context.Context, threadIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}
	rows := []struct {
		ThreadID uint
		Total    int64
	}{}
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Select("thread_id, COUNT(*) AS total").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ThreadID] = r.Total
	}
	return counts, nil
}

// Categories returns the seeded boards in their fixed order.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("id ASC").Find(&cats).Error
	return cats, err
}

// CategoryByName loads one board, ErrNotFound outside the fixed set.
func (s *Service) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	if !models.ValidCategory(name) {
		return nil, ErrNotFound
	}
	var cat models.Category
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
