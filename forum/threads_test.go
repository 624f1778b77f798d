package forum

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stufor/stufor/models"
)

const validBody = "This body is comfortably longer than fifteen characters."

func TestCreateThreadRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	ctx := context.Background()

	cases := []struct {
		name     string
		category string
		title    string
		body     string
		field    string
	}{
		{"title too short", "Resources", "abcd", validBody, "title"},
		{"title too long", "Resources", strings.Repeat("a", 51), validBody, "title"},
		{"body too short", "Resources", "A valid title", "too short", "body"},
		{"body too long", "Resources", "A valid title", strings.Repeat("b", 8001), "body"},
		{"unknown category", "Off Topic", "A valid title", validBody, "category"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateThread(ctx, tc.category, tc.title, tc.body, alice)
			ve, ok := AsValidation(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	// Nothing may be persisted on any failed attempt.
	var threads, posts int64
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, threads)
	assert.Zero(t, posts)
}

func TestCreateThreadSuccess(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Resources", "Need textbook PDF", validBody, alice)
	require.NoError(t, err)
	require.Len(t, thread.Posts, 1)
	assert.Equal(t, "alice", thread.AuthorName)
	assert.Equal(t, clock.t, thread.LastModified)

	var stored models.User
	require.NoError(t, db.First(&stored, alice.ID).Error)
	assert.Equal(t, 1, stored.PostCount)
}

func TestCreateThreadRollsBackOnFirstPostFailure(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)
	alice := createUser(t, db, "alice", false)

	// Make the first-post insert fail after the thread insert succeeded.
	require.NoError(t, db.Migrator().DropTable(&models.Post{}))

	_, err := svc.CreateThread(context.Background(), "Resources", "A valid title", validBody, alice)
	require.Error(t, err)

	var threads int64
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)
	assert.Zero(t, threads, "no orphan thread may survive the compensating delete")
}

func TestAddPostAppendsInArrivalOrder(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Support", "Site keeps logging me out", validBody, alice)
	require.NoError(t, err)
	created := thread.LastModified

	clock.advance(time.Minute)
	_, err = svc.AddPost(ctx, thread.ID, "First reply, with enough length.", bob)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = svc.AddPost(ctx, thread.ID, "Second reply, also long enough.", alice)
	require.NoError(t, err)

	reloaded, err := svc.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Posts, 3)
	assert.Equal(t, "bobby", reloaded.Posts[1].AuthorName)
	assert.Equal(t, "alice", reloaded.Posts[2].AuthorName)
	assert.True(t, reloaded.LastModified.After(created), "LastModified must move with each appended post")

	var storedBob models.User
	require.NoError(t, db.First(&storedBob, bob.ID).Error)
	assert.Equal(t, 1, storedBob.PostCount)
}

func TestAddPostUnknownThread(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)
	alice := createUser(t, db, "alice", false)

	_, err := svc.AddPost(context.Background(), 4242, validBody, alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditPostGraceWindow(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Doubt Solving", "Organic chem question", validBody, alice)
	require.NoError(t, err)
	post := thread.Posts[0]

	// 119 seconds after creation: still inside the grace window.
	clock.advance(119 * time.Second)
	edited, err := svc.EditPost(ctx, post.ID, "Edited inside the grace window period.", alice)
	require.NoError(t, err)
	assert.Nil(t, edited.ModifiedAt)

	// 121 seconds after creation: the marker appears.
	clock.advance(2 * time.Second)
	edited, err = svc.EditPost(ctx, post.ID, "Edited outside the grace window period.", alice)
	require.NoError(t, err)
	require.NotNil(t, edited.ModifiedAt)
	assert.Equal(t, clock.t, *edited.ModifiedAt)
}

func TestEditPostOnlyByAuthor(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Consultation", "Career advice needed", validBody, alice)
	require.NoError(t, err)

	_, err = svc.EditPost(ctx, thread.Posts[0].ID, "Bob should not be able to do this.", bob)
	assert.ErrorIs(t, err, ErrPermission)
}

func TestDeletePostByNonOwnerNonAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Resources", "Need textbook PDF", validBody, alice)
	require.NoError(t, err)
	postID := thread.Posts[0].ID

	err = svc.DeletePost(ctx, postID, bob, "")
	assert.ErrorIs(t, err, ErrPermission)

	_, err = svc.GetPost(ctx, postID)
	assert.NoError(t, err, "the post must survive a refused deletion")
}

func TestOwnerDeletePostWithoutReason(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Resources", "Need textbook PDF", validBody, alice)
	require.NoError(t, err)
	clock.advance(time.Minute)
	post, err := svc.AddPost(ctx, thread.ID, "A reply bob will remove himself.", bob)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx, post.ID, bob, ""))

	_, err = svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var storedBob models.User
	require.NoError(t, db.First(&storedBob, bob.ID).Error)
	assert.Equal(t, 0, storedBob.PostCount)

	var logs int64
	require.NoError(t, db.Model(&models.DeletionLog{}).Count(&logs).Error)
	assert.Zero(t, logs, "self-service deletions are not logged")
}

func TestAdminDeleteRequiresLoggedReason(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	mod := createUser(t, db, "modwoman", true)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "Miscellaneous", "Buy cheap essays here", validBody, alice)
	require.NoError(t, err)
	postID := thread.Posts[0].ID

	err = svc.DeletePost(ctx, postID, mod, "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)

	require.NoError(t, svc.DeletePost(ctx, postID, mod, "spam"))

	var entry models.DeletionLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.EntityPost, entry.EntityKind)
	assert.Equal(t, postID, entry.EntityID)
	assert.Equal(t, "modwoman", entry.ModeratorName)
	assert.Equal(t, "spam", entry.Reason)
}

func TestDeleteThreadCascades(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	mod := createUser(t, db, "modwoman", true)
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "General Discussion", "Weekend study group", validBody, alice)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = svc.AddPost(ctx, thread.ID, "Bob writes the first of two replies.", bob)
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, thread.ID, "Bob writes the second of two replies.", bob)
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, thread.ID, "Alice replies in her own thread too.", alice)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteThread(ctx, thread.ID, mod, "duplicate thread"))

	_, err = svc.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Where("thread_id = ?", thread.ID).Count(&posts).Error)
	assert.Zero(t, posts)

	var storedAlice, storedBob models.User
	require.NoError(t, db.First(&storedAlice, alice.ID).Error)
	require.NoError(t, db.First(&storedBob, bob.ID).Error)
	assert.Equal(t, 0, storedAlice.PostCount, "opening post and reply both returned")
	assert.Equal(t, 0, storedBob.PostCount)

	var entry models.DeletionLog
	require.NoError(t, db.Where("entity_kind = ?", models.EntityThread).First(&entry).Error)
	assert.Equal(t, thread.ID, entry.EntityID)
}
