package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwave/pollwave/internal/domain"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	email := uniqueEmail("ada")
	created := createTestUser(t, pool, email)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, email, byID.Email)

	byEmail, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUserRepo_GetUnknown(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	email := uniqueEmail("dupe")
	createTestUser(t, pool, email)

	_, err := repo.Create(ctx, &domain.User{
		ID:         uuid.New(),
		Name:       "other",
		Email:      email,
		SecretHash: "hash",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserRepo_List(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	createTestUser(t, pool, uniqueEmail("a"))
	createTestUser(t, pool, uniqueEmail("b"))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
