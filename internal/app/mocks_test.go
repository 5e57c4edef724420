package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pollwave/pollwave/internal/domain"
)

type mockUserRepo struct {
	getByIDFn    func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	createFn     func(ctx context.Context, user *domain.User) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return &domain.User{ID: userID}, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepo) List(context.Context) ([]*domain.User, error) {
	return nil, nil
}

type mockPollRepo struct {
	mu sync.Mutex

	getByIDFn         func(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error)
	createFn          func(ctx context.Context, poll *domain.Poll) (*domain.Poll, error)
	listFn            func(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error)
	listOpenExpiredFn func(ctx context.Context, asOf time.Time) ([]*domain.Poll, error)
	updateStatusFn    func(ctx context.Context, pollID uuid.UUID, status domain.PollStatus) error

	created       []*domain.Poll
	statusUpdates []uuid.UUID
}

func (m *mockPollRepo) GetByID(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, pollID)
	}
	return nil, domain.ErrPollNotFound
}

func (m *mockPollRepo) Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	m.mu.Lock()
	m.created = append(m.created, poll)
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, poll)
	}
	return poll, nil
}

func (m *mockPollRepo) List(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (m *mockPollRepo) ListOpenExpired(ctx context.Context, asOf time.Time) ([]*domain.Poll, error) {
	if m.listOpenExpiredFn != nil {
		return m.listOpenExpiredFn(ctx, asOf)
	}
	return nil, nil
}

func (m *mockPollRepo) UpdateStatus(ctx context.Context, pollID uuid.UUID, status domain.PollStatus) error {
	m.mu.Lock()
	m.statusUpdates = append(m.statusUpdates, pollID)
	m.mu.Unlock()
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, pollID, status)
	}
	return nil
}

type mockVoteRepo struct {
	findFn       func(ctx context.Context, voterID, pollID uuid.UUID) (*domain.Vote, error)
	listByPollFn func(ctx context.Context, pollID uuid.UUID) ([]*domain.Vote, error)
}

func (m *mockVoteRepo) Save(_ context.Context, vote *domain.Vote) (*domain.Vote, error) {
	return vote, nil
}

func (m *mockVoteRepo) Find(ctx context.Context, voterID, pollID uuid.UUID) (*domain.Vote, error) {
	if m.findFn != nil {
		return m.findFn(ctx, voterID, pollID)
	}
	return nil, domain.ErrVoteNotFound
}

func (m *mockVoteRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (m *mockVoteRepo) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Vote, error) {
	if m.listByPollFn != nil {
		return m.listByPollFn(ctx, pollID)
	}
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(uuid.UUID, domain.ResultDelta) {}
