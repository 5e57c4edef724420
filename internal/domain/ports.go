package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// ListPollsParams controls paginated poll listing.
type ListPollsParams struct {
	Page   int
	Limit  int
	Search string
}

// PollRepository abstracts poll and option persistence. Polls and their
// options are created together and never structurally changed afterward;
// only the status field is mutated.
type PollRepository interface {
	GetByID(ctx context.Context, pollID uuid.UUID) (*Poll, error)
	Create(ctx context.Context, poll *Poll) (*Poll, error)
	List(ctx context.Context, params ListPollsParams) ([]*Poll, int, error)
	ListOpenExpired(ctx context.Context, asOf time.Time) ([]*Poll, error)
	UpdateStatus(ctx context.Context, pollID uuid.UUID, status PollStatus) error
}

// VoteRepository abstracts vote persistence. Save must report a duplicate
// (voter_id, poll_id) pair as ErrAlreadyVoted - uniqueness is enforced by
// the store, not by a check-then-insert in the caller, so concurrent casts
// for the same pair cannot race past each other.
type VoteRepository interface {
	Save(ctx context.Context, vote *Vote) (*Vote, error)
	Find(ctx context.Context, voterID, pollID uuid.UUID) (*Vote, error)
	Delete(ctx context.Context, voterID, pollID uuid.UUID) error
	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*Vote, error)
}

// ResultPublisher pushes result deltas to the subscribers of a poll.
// Delivery is fire-and-forget: a delta sent to a poll nobody watches, or
// to a connection that died mid-send, is silently dropped.
type ResultPublisher interface {
	Publish(pollID uuid.UUID, delta ResultDelta)
}
