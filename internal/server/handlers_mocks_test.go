package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pollwave/pollwave/internal/app"
	"github.com/pollwave/pollwave/internal/auth"
	"github.com/pollwave/pollwave/internal/config"
	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/websocket"
)

// --- Mock implementations ---

type mockAppService struct {
	createUserFn     func(ctx context.Context, name, email, secretHash string) (*domain.User, error)
	getUserByIDFn    func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	getUserByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	listUsersFn      func(ctx context.Context) ([]*domain.User, error)
	createPollFn     func(ctx context.Context, creatorID uuid.UUID, req app.CreatePollRequest) (*domain.Poll, error)
	getPollFn        func(ctx context.Context, pollID, viewerID uuid.UUID) (*domain.Poll, *domain.ResultSnapshot, *uuid.UUID, error)
	listPollsFn      func(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error)
	closePollFn      func(ctx context.Context, pollID, requesterID uuid.UUID) error
	resultsFn        func(ctx context.Context, pollID uuid.UUID) (*domain.ResultSnapshot, error)
	castVoteFn       func(ctx context.Context, voterID, pollID, optionID uuid.UUID) (*domain.Vote, error)
	retractVoteFn    func(ctx context.Context, voterID, pollID uuid.UUID) error
}

func (m *mockAppService) CreateUser(ctx context.Context, name, email, secretHash string) (*domain.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, name, email, secretHash)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) CreatePoll(ctx context.Context, creatorID uuid.UUID, req app.CreatePollRequest) (*domain.Poll, error) {
	if m.createPollFn != nil {
		return m.createPollFn(ctx, creatorID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetPoll(ctx context.Context, pollID, viewerID uuid.UUID) (*domain.Poll, *domain.ResultSnapshot, *uuid.UUID, error) {
	if m.getPollFn != nil {
		return m.getPollFn(ctx, pollID, viewerID)
	}
	return nil, nil, nil, domain.ErrPollNotFound
}

func (m *mockAppService) ListPolls(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error) {
	if m.listPollsFn != nil {
		return m.listPollsFn(ctx, params)
	}
	return nil, 0, nil
}

func (m *mockAppService) ClosePoll(ctx context.Context, pollID, requesterID uuid.UUID) error {
	if m.closePollFn != nil {
		return m.closePollFn(ctx, pollID, requesterID)
	}
	return domain.ErrPollNotFound
}

func (m *mockAppService) Results(ctx context.Context, pollID uuid.UUID) (*domain.ResultSnapshot, error) {
	if m.resultsFn != nil {
		return m.resultsFn(ctx, pollID)
	}
	return nil, domain.ErrPollNotFound
}

func (m *mockAppService) CastVote(ctx context.Context, voterID, pollID, optionID uuid.UUID) (*domain.Vote, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, voterID, pollID, optionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) RetractVote(ctx context.Context, voterID, pollID uuid.UUID) error {
	if m.retractVoteFn != nil {
		return m.retractVoteFn(ctx, voterID, pollID)
	}
	return domain.ErrVoteNotFound
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(context.Context) error {
	return m.err
}

// --- Test setup ---

const testTokenSecret = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                "test",
		Port:                  "0",
		LogLevel:              "error",
		LogFormat:             "text",
		TokenSecret:           testTokenSecret,
		TokenTTL:              time.Hour,
		SweepInterval:         time.Minute,
		MaxSubscribersPerPoll: 100,
		APIRatePerSecond:      1000,
		APIRateBurst:          1000,
	}
}

func testServer(t *testing.T, appSvc *mockAppService) (*Server, *auth.Tokens) {
	t.Helper()

	clock := clockwork.NewRealClock()
	tokens := auth.NewTokens(testTokenSecret, time.Hour, clock)
	hub := websocket.NewHub(clock, 100)
	t.Cleanup(func() { hub.Stop() })

	srv := NewServer(testConfig(), appSvc, hub, tokens, &mockHealthChecker{})
	return srv, tokens
}

func bearerToken(tokens *auth.Tokens, userID uuid.UUID) string {
	return "Bearer " + tokens.Mint(userID)
}

func hashForTest(secret, email string) string {
	return auth.HashSecret(secret, email)
}
