// Package vote implements the vote ledger: the single writer of vote records.
package vote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/logging"
	"github.com/pollwave/pollwave/internal/metrics"
	"github.com/pollwave/pollwave/internal/results"
)

// Ledger enforces the one-vote-per-user-per-poll invariant and orchestrates
// vote mutations: validate, persist, recompute results, publish the delta.
//
// Uniqueness is not checked here. The vote store's (voter_id, poll_id)
// constraint is the arbiter; under concurrent casts for the same pair
// exactly one insert lands and the rest come back as ErrAlreadyVoted. A
// check-then-insert in this layer would race.
type Ledger struct {
	users      domain.UserRepository
	polls      domain.PollRepository
	votes      domain.VoteRepository
	aggregator *results.Aggregator
	publisher  domain.ResultPublisher
	clock      clockwork.Clock
}

func NewLedger(users domain.UserRepository, polls domain.PollRepository, votes domain.VoteRepository, aggregator *results.Aggregator, publisher domain.ResultPublisher, clock clockwork.Clock) *Ledger {
	return &Ledger{
		users:      users,
		polls:      polls,
		votes:      votes,
		aggregator: aggregator,
		publisher:  publisher,
		clock:      clock,
	}
}

// Cast records a vote by voterID for optionID on pollID. The poll must be
// effectively open: a stored CLOSED status and a passed expiry are both
// rejections, even if the sweeper has not caught up with the latter yet.
func (l *Ledger) Cast(ctx context.Context, voterID, pollID, optionID uuid.UUID) (*domain.Vote, error) {
	if _, err := l.users.GetByID(ctx, voterID); err != nil {
		return nil, rejected(err)
	}

	poll, err := l.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, rejected(err)
	}

	if poll.EffectivelyClosed(l.clock.Now()) {
		return nil, rejected(domain.ErrPollClosed)
	}

	if _, ok := poll.Option(optionID); !ok {
		return nil, rejected(domain.ErrOptionNotFound)
	}

	vote, err := l.votes.Save(ctx, &domain.Vote{
		VoterID:  voterID,
		PollID:   pollID,
		OptionID: optionID,
	})
	if err != nil {
		return nil, rejected(err)
	}

	metrics.VotesCastTotal.Inc()
	logging.WithVoter(voterID.String()).Debug("Vote cast", "poll_id", pollID.String(), "option_id", optionID.String())
	l.broadcast(ctx, pollID, optionID)
	return vote, nil
}

// Retract removes the vote voterID holds on pollID and announces the
// retracted option's updated tally.
func (l *Ledger) Retract(ctx context.Context, voterID, pollID uuid.UUID) error {
	vote, err := l.votes.Find(ctx, voterID, pollID)
	if err != nil {
		return rejected(err)
	}

	if err := l.votes.Delete(ctx, voterID, pollID); err != nil {
		return rejected(err)
	}

	metrics.VotesRetractedTotal.Inc()
	l.broadcast(ctx, pollID, vote.OptionID)
	return nil
}

// broadcast recomputes the poll's results and publishes the delta for the
// affected option. An option missing from the snapshot means no broadcast,
// not an error; same for a failed recompute - the vote itself is already
// durable and observers catch up on their next snapshot.
func (l *Ledger) broadcast(ctx context.Context, pollID, optionID uuid.UUID) {
	snapshot, err := l.aggregator.ComputeResults(ctx, pollID)
	if err != nil {
		logging.WithPoll(pollID.String()).Error("Result recompute failed after vote mutation", "error", err)
		return
	}

	entry, ok := snapshot.Option(optionID)
	if !ok {
		return
	}

	l.publisher.Publish(pollID, domain.ResultDelta{
		PollID:      pollID,
		OptionID:    optionID,
		TotalVotes:  snapshot.TotalVotes,
		OptionVotes: entry.VoteCount,
		Percentage:  entry.Percentage,
	})
}

// rejected counts the rejection reason before passing the error through.
func rejected(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		metrics.VoteRejectionsTotal.WithLabelValues("voter_not_found").Inc()
	case errors.Is(err, domain.ErrPollNotFound):
		metrics.VoteRejectionsTotal.WithLabelValues("poll_not_found").Inc()
	case errors.Is(err, domain.ErrPollClosed):
		metrics.VoteRejectionsTotal.WithLabelValues("poll_closed").Inc()
	case errors.Is(err, domain.ErrOptionNotFound):
		metrics.VoteRejectionsTotal.WithLabelValues("option_not_found").Inc()
	case errors.Is(err, domain.ErrAlreadyVoted):
		metrics.VoteRejectionsTotal.WithLabelValues("already_voted").Inc()
	case errors.Is(err, domain.ErrVoteNotFound):
		metrics.VoteRejectionsTotal.WithLabelValues("vote_not_found").Inc()
	default:
		metrics.VoteRejectionsTotal.WithLabelValues("storage").Inc()
	}
	return err
}
