package forum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByCategoryUnknownName(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newFixedService(db)

	_, err := svc.ListByCategory(context.Background(), "Chitchat", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscoveryScenario(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	ctx := context.Background()

	busy, err := svc.CreateThread(ctx, "Support", "Login page is broken",
		"Whenever I log in the page just reloads without any error.", bob)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = svc.AddPost(ctx, busy.ID, "Same here, started this morning.", alice)
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, busy.ID, "Clearing cookies fixed it for me.", bob)
	require.NoError(t, err)

	clock.advance(time.Minute)
	textbook, err := svc.CreateThread(ctx, "Resources", "Need textbook PDF",
		"Looking for organic chemistry textbook, any edition", alice)
	require.NoError(t, err)

	// The new thread shows up in its category and in the recent listing.
	inCategory, err := svc.ListByCategory(ctx, "Resources", 10)
	require.NoError(t, err)
	require.Len(t, inCategory, 1)
	assert.Equal(t, textbook.ID, inCategory[0].ID)

	recent, err := svc.ListRecentThreads(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, textbook.ID, recent[0].ID, "newest activity first")

	// Popularity is computed from post counts, so the busy thread leads.
	popular, err := svc.ListPopularThreads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, busy.ID, popular[0].ID)

	// Once the textbook thread has the most posts it takes the top spot.
	clock.advance(time.Minute)
	_, err = svc.AddPost(ctx, textbook.ID, "Check the library reserve desk first.", bob)
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, textbook.ID, "The fourth edition is fine for the course.", bob)
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, textbook.ID, "Thanks everyone, found a copy to borrow.", alice)
	require.NoError(t, err)

	popular, err = svc.ListPopularThreads(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, textbook.ID, popular[0].ID)
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	bob := createUser(t, db, "bobby", false)
	ctx := context.Background()

	_, err := svc.CreateThread(ctx, "Resources", "Need textbook PDF",
		"Looking for organic chemistry textbook, any edition", alice)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = svc.CreateThread(ctx, "Resources", "Selling used textbooks",
		"Calculus and physics textbooks from last semester.", bob)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = svc.CreateThread(ctx, "Support", "Password reset mail missing",
		"The reset mail never arrives at my inbox.", bob)
	require.NoError(t, err)

	// Case-insensitive substring match on the title.
	hits, err := svc.Search(ctx, "TEXTBOOK", "")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// Restricted to one originator.
	hits, err = svc.Search(ctx, "textbook", "alice")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Need textbook PDF", hits[0].Title)

	// Empty query matches all threads.
	hits, err = svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	// No hits is an empty slice, not an error.
	hits, err = svc.Search(ctx, "underwater basket weaving", "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPostCounts(t *testing.T) {
	db := setupTestDB(t)
	svc, clock := newFixedService(db)
	alice := createUser(t, db, "alice", false)
	ctx := context.Background()

	one, err := svc.CreateThread(ctx, "Miscellaneous", "Lost my water bottle",
		"Blue bottle, left in the chemistry lab on Friday.", alice)
	require.NoError(t, err)
	clock.advance(time.Minute)
	two, err := svc.CreateThread(ctx, "Miscellaneous", "Found a water bottle",
		"Is anyone missing a blue bottle from the lab?", alice)
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, two.ID, "That sounds like mine, thank you!", alice)
	require.NoError(t, err)

	counts, err := svc.PostCounts(ctx, []uint{one.ID, two.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[one.ID])
	assert.Equal(t, int64(2), counts[two.ID])

	counts, err = svc.PostCounts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
