package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwave/pollwave/internal/domain"
)

func TestPollRepo_CreateAndGetKeepsOptionOrder(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)
	ctx := context.Background()

	creator := createTestUser(t, pool, uniqueEmail("creator"))
	created := createTestPoll(t, pool, creator.ID, "Spring", "Summer", "Autumn", "Winter")

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Favorite season?", got.Title)
	assert.Equal(t, domain.PollStatusOpen, got.Status)
	assert.Equal(t, creator.ID, got.CreatorID)
	require.Len(t, got.Options, 4)
	for i, text := range []string{"Spring", "Summer", "Autumn", "Winter"} {
		assert.Equal(t, text, got.Options[i].Text)
	}
}

func TestPollRepo_GetUnknown(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestPollRepo_ListPaginatesAndCounts(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)
	ctx := context.Background()

	creator := createTestUser(t, pool, uniqueEmail("creator"))
	for range 5 {
		createTestPoll(t, pool, creator.ID, "Yes", "No")
	}

	polls, total, err := repo.List(ctx, domain.ListPollsParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, polls, 2)

	polls, total, err = repo.List(ctx, domain.ListPollsParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, polls, 1)
}

func TestPollRepo_ListSearchesByTitle(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)
	ctx := context.Background()

	creator := createTestUser(t, pool, uniqueEmail("creator"))
	createTestPoll(t, pool, creator.ID, "Yes", "No")

	polls, total, err := repo.List(ctx, domain.ListPollsParams{Page: 1, Limit: 10, Search: "season"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, polls, 1)

	_, total, err = repo.List(ctx, domain.ListPollsParams{Page: 1, Limit: 10, Search: "zzz-no-match"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPollRepo_ListOpenExpired(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)
	ctx := context.Background()

	creator := createTestUser(t, pool, uniqueEmail("creator"))
	expired := createExpiredPoll(t, pool, creator.ID)
	createTestPoll(t, pool, creator.ID, "Yes", "No")

	due, err := repo.ListOpenExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, expired.ID, due[0].ID)

	// A closed expired poll is no longer due.
	require.NoError(t, repo.UpdateStatus(ctx, expired.ID, domain.PollStatusClosed))
	due, err = repo.ListOpenExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due)
}

// A poll expiring exactly at the sweep instant still accepts votes, so it
// must not be due yet; one microsecond later it is.
func TestPollRepo_ListOpenExpiredExactInstantNotDue(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)
	ctx := context.Background()

	creator := createTestUser(t, pool, uniqueEmail("creator"))
	p := createTestPoll(t, pool, creator.ID, "Yes", "No")

	expiry := time.Now().UTC().Truncate(time.Microsecond)
	_, err := pool.Exec(ctx, "UPDATE polls SET expires_at = $1 WHERE id = $2", expiry, p.ID)
	require.NoError(t, err)

	due, err := repo.ListOpenExpired(ctx, expiry)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = repo.ListOpenExpired(ctx, expiry.Add(time.Microsecond))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, p.ID, due[0].ID)
}

func TestPollRepo_UpdateStatus(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)
	ctx := context.Background()

	creator := createTestUser(t, pool, uniqueEmail("creator"))
	p := createTestPoll(t, pool, creator.ID, "Yes", "No")

	require.NoError(t, repo.UpdateStatus(ctx, p.ID, domain.PollStatusClosed))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusClosed, got.Status)
}

func TestPollRepo_UpdateStatusUnknownPoll(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPollRepo(pool)

	err := repo.UpdateStatus(context.Background(), uuid.New(), domain.PollStatusClosed)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}
