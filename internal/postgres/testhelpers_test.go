package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/pollwave/pollwave/internal/domain"
)

func createTestUser(t *testing.T, pool *pgxpool.Pool, email string) *domain.User {
	t.Helper()

	repo := NewUserRepo(pool)
	user, err := repo.Create(context.Background(), &domain.User{
		ID:         uuid.New(),
		Name:       "testuser",
		Email:      email,
		SecretHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func createTestPoll(t *testing.T, pool *pgxpool.Pool, creatorID uuid.UUID, optionTexts ...string) *domain.Poll {
	t.Helper()

	pollID := uuid.New()
	p := &domain.Poll{
		ID:         pollID,
		Title:      "Favorite season?",
		Visibility: domain.PollVisibilityPublic,
		Status:     domain.PollStatusOpen,
		CreatorID:  creatorID,
	}
	for _, text := range optionTexts {
		p.Options = append(p.Options, domain.Option{ID: uuid.New(), PollID: pollID, Text: text})
	}

	repo := NewPollRepo(pool)
	created, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func createExpiredPoll(t *testing.T, pool *pgxpool.Pool, creatorID uuid.UUID) *domain.Poll {
	t.Helper()

	p := createTestPoll(t, pool, creatorID, "Yes", "No")

	// Backdate the expiry directly; Create has no business accepting one in the past.
	expiry := time.Now().UTC().Add(-time.Hour)
	_, err := pool.Exec(context.Background(), "UPDATE polls SET expires_at = $1 WHERE id = $2", expiry, p.ID)
	require.NoError(t, err)
	p.ExpiresAt = &expiry
	return p
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}
