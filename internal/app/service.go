package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/poll"
	"github.com/pollwave/pollwave/internal/results"
	"github.com/pollwave/pollwave/internal/vote"
)

const (
	minPollOptions   = 2
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Service is the application layer - the only component that references
// multiple engine components. Handlers route every operation through here.
type Service struct {
	users      domain.UserRepository
	polls      domain.PollRepository
	votes      domain.VoteRepository
	ledger     *vote.Ledger
	lifecycle  *poll.Lifecycle
	aggregator *results.Aggregator
	clock      clockwork.Clock

	// resultsGroup collapses concurrent result reads for the same poll into
	// one aggregation. Only the read path shares computations; the ledger's
	// post-mutation recomputes stay independent so every delta reflects the
	// mutation that triggered it.
	resultsGroup singleflight.Group
}

func NewService(users domain.UserRepository, polls domain.PollRepository, votes domain.VoteRepository, ledger *vote.Ledger, lifecycle *poll.Lifecycle, aggregator *results.Aggregator, clock clockwork.Clock) *Service {
	return &Service{
		users:      users,
		polls:      polls,
		votes:      votes,
		ledger:     ledger,
		lifecycle:  lifecycle,
		aggregator: aggregator,
		clock:      clock,
	}
}

// --- Users ---

// CreateUser registers a new user. The secret hash is produced by the
// caller; this layer never sees credentials.
func (s *Service) CreateUser(ctx context.Context, name, email, secretHash string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}

	return s.users.Create(ctx, &domain.User{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		SecretHash: secretHash,
	})
}

func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// --- Polls ---

// CreatePollRequest carries everything needed to create a poll with its options.
type CreatePollRequest struct {
	Title       string
	Description string
	Visibility  domain.PollVisibility
	ExpiresAt   *time.Time
	Options     []string
}

// CreatePoll creates a poll together with its options. Polls need at least
// two options and are never structurally changed afterward.
func (s *Service) CreatePoll(ctx context.Context, creatorID uuid.UUID, req CreatePollRequest) (*domain.Poll, error) {
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("%w: poll title is required", domain.ErrInvalidInput)
	}
	if len(req.Options) < minPollOptions {
		return nil, fmt.Errorf("%w: poll needs at least %d options", domain.ErrInvalidInput, minPollOptions)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.clock.Now()) {
		return nil, fmt.Errorf("%w: poll expiry must be in the future", domain.ErrInvalidInput)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.PollVisibilityPublic
	}

	pollID := uuid.New()
	options := make([]domain.Option, 0, len(req.Options))
	for _, text := range req.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: poll option text must not be empty", domain.ErrInvalidInput)
		}
		options = append(options, domain.Option{
			ID:     uuid.New(),
			PollID: pollID,
			Text:   text,
		})
	}

	return s.polls.Create(ctx, &domain.Poll{
		ID:          pollID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Visibility:  visibility,
		Status:      domain.PollStatusOpen,
		ExpiresAt:   req.ExpiresAt,
		CreatorID:   creatorID,
		Options:     options,
	})
}

// GetPoll fetches a poll with its current results as viewerID sees it.
// viewerID is uuid.Nil for anonymous callers, who may not read private
// polls. Authenticated viewers additionally get the ID of the option they
// voted for, if any. A poll observed past its expiry gets its stored status
// updated best-effort on the way out.
func (s *Service) GetPoll(ctx context.Context, pollID, viewerID uuid.UUID) (*domain.Poll, *domain.ResultSnapshot, *uuid.UUID, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, nil, nil, err
	}

	if p.Visibility == domain.PollVisibilityPrivate && viewerID == uuid.Nil {
		return nil, nil, nil, domain.ErrPrivatePoll
	}

	s.lifecycle.MarkExpiredClosed(ctx, p)

	snapshot, err := s.Results(ctx, pollID)
	if err != nil {
		return nil, nil, nil, err
	}

	var votedOption *uuid.UUID
	if viewerID != uuid.Nil {
		switch v, err := s.votes.Find(ctx, viewerID, pollID); {
		case err == nil:
			votedOption = &v.OptionID
		case !errors.Is(err, domain.ErrVoteNotFound):
			return nil, nil, nil, err
		}
	}
	return p, snapshot, votedOption, nil
}

// ListPolls returns a page of public polls, optionally filtered by title.
func (s *Service) ListPolls(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageLimit
	}
	if params.Limit > maxPageLimit {
		params.Limit = maxPageLimit
	}
	return s.polls.List(ctx, params)
}

// ClosePoll transitions a poll to closed on behalf of its creator.
func (s *Service) ClosePoll(ctx context.Context, pollID, requesterID uuid.UUID) error {
	return s.lifecycle.Close(ctx, pollID, requesterID)
}

// Results computes the current result snapshot for a poll. Concurrent reads
// for the same poll share a single aggregation.
func (s *Service) Results(ctx context.Context, pollID uuid.UUID) (*domain.ResultSnapshot, error) {
	v, err, _ := s.resultsGroup.Do(pollID.String(), func() (any, error) {
		return s.aggregator.ComputeResults(ctx, pollID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ResultSnapshot), nil
}

// --- Votes ---

// CastVote records a vote and fans the updated tally out to subscribers.
func (s *Service) CastVote(ctx context.Context, voterID, pollID, optionID uuid.UUID) (*domain.Vote, error) {
	return s.ledger.Cast(ctx, voterID, pollID, optionID)
}

// RetractVote removes the caller's vote on a poll.
func (s *Service) RetractVote(ctx context.Context, voterID, pollID uuid.UUID) error {
	return s.ledger.Retract(ctx, voterID, pollID)
}
