// Package results computes aggregated poll results from stored votes.
package results

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/pollwave/pollwave/internal/domain"
)

// Aggregator derives result snapshots from the storage port. It holds no
// state of its own: every call reads the current options and votes, so it
// is safe to invoke repeatedly and concurrently.
type Aggregator struct {
	polls domain.PollRepository
	votes domain.VoteRepository
}

func NewAggregator(polls domain.PollRepository, votes domain.VoteRepository) *Aggregator {
	return &Aggregator{polls: polls, votes: votes}
}

// ComputeResults tallies votes per option for a poll. Percentages are
// rounded half-up to two decimals and are all zero when the poll has no
// votes. Options keep the order the poll defines.
func (a *Aggregator) ComputeResults(ctx context.Context, pollID uuid.UUID) (*domain.ResultSnapshot, error) {
	poll, err := a.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	votes, err := a.votes.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes for poll %s: %w", pollID, err)
	}

	counts := make(map[uuid.UUID]int, len(poll.Options))
	for _, v := range votes {
		counts[v.OptionID]++
	}

	total := len(votes)
	snapshot := &domain.ResultSnapshot{
		PollID:     poll.ID,
		Title:      poll.Title,
		TotalVotes: total,
		Options:    make([]domain.OptionResult, 0, len(poll.Options)),
	}

	for _, opt := range poll.Options {
		count := counts[opt.ID]
		snapshot.Options = append(snapshot.Options, domain.OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			VoteCount:  count,
			Percentage: percentage(count, total),
		})
	}

	return snapshot, nil
}

// percentage rounds half-up to two decimals, matching plain float rounding.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*100) / 100
}
