// Package poll owns the open/closed lifecycle of polls.
package poll

import (
	"context"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/logging"
	"github.com/pollwave/pollwave/internal/metrics"
)

// Lifecycle drives the single OPEN -> CLOSED transition, both on request of
// the poll creator and automatically once a poll's expiry passes. CLOSED is
// terminal. Whether a poll currently accepts votes is decided by
// domain.Poll.EffectivelyClosed, not by the persisted status - the writes
// done here are eventual bookkeeping.
type Lifecycle struct {
	polls domain.PollRepository
	clock clockwork.Clock
}

func NewLifecycle(polls domain.PollRepository, clock clockwork.Clock) *Lifecycle {
	return &Lifecycle{polls: polls, clock: clock}
}

// Close transitions a poll to CLOSED on behalf of its creator. Closing an
// already-closed poll succeeds without touching storage.
func (l *Lifecycle) Close(ctx context.Context, pollID, requesterID uuid.UUID) error {
	poll, err := l.polls.GetByID(ctx, pollID)
	if err != nil {
		return err
	}

	if poll.CreatorID != requesterID {
		return domain.ErrNotPollCreator
	}

	if poll.Status == domain.PollStatusClosed {
		return nil
	}

	if err := l.polls.UpdateStatus(ctx, pollID, domain.PollStatusClosed); err != nil {
		return err
	}

	metrics.PollsClosedTotal.WithLabelValues("manual").Inc()
	logging.WithPoll(pollID.String()).Info("Poll closed", "requester_id", requesterID.String())
	return nil
}

// CloseExpired persists the CLOSED status for every open poll whose expiry
// has passed and returns how many were closed. A failure on one poll does
// not abort the others.
func (l *Lifecycle) CloseExpired(ctx context.Context) (int, error) {
	now := l.clock.Now()

	expired, err := l.polls.ListOpenExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, p := range expired {
		if err := l.polls.UpdateStatus(ctx, p.ID, domain.PollStatusClosed); err != nil {
			logging.WithPoll(p.ID.String()).Error("Failed to close expired poll", "error", err)
			continue
		}
		metrics.PollsClosedTotal.WithLabelValues("expired").Inc()
		closed++
	}

	return closed, nil
}

// MarkExpiredClosed is the lazy-close counterpart of CloseExpired: it
// persists the CLOSED status for a single poll observed past its expiry on
// a read path. Best effort - the effective state already holds regardless.
func (l *Lifecycle) MarkExpiredClosed(ctx context.Context, poll *domain.Poll) {
	if poll.Status == domain.PollStatusClosed || !poll.EffectivelyClosed(l.clock.Now()) {
		return
	}
	if err := l.polls.UpdateStatus(ctx, poll.ID, domain.PollStatusClosed); err != nil {
		logging.WithPoll(poll.ID.String()).Warn("Failed to persist lazy close", "error", err)
		return
	}
	metrics.PollsClosedTotal.WithLabelValues("expired").Inc()
	poll.Status = domain.PollStatusClosed
}
