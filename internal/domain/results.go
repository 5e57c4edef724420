package domain

import "github.com/google/uuid"

// OptionResult is the aggregated tally for a single poll option.
type OptionResult struct {
	OptionID   uuid.UUID `json:"optionId"`
	Text       string    `json:"optionText"`
	VoteCount  int       `json:"voteCount"`
	Percentage float64   `json:"percentage"`
}

// ResultSnapshot is the full aggregated result of a poll at one point in
// time. It is derived on demand and never cached across calls.
type ResultSnapshot struct {
	PollID     uuid.UUID      `json:"pollId"`
	Title      string         `json:"title"`
	TotalVotes int            `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
}

// Option returns the snapshot entry for the given option, if present.
func (s *ResultSnapshot) Option(optionID uuid.UUID) (*OptionResult, bool) {
	for i := range s.Options {
		if s.Options[i].OptionID == optionID {
			return &s.Options[i], true
		}
	}
	return nil, false
}

// ResultDelta is the per-option result fragment pushed to subscribers of a
// poll after a vote mutation.
type ResultDelta struct {
	PollID      uuid.UUID `json:"pollId"`
	OptionID    uuid.UUID `json:"optionId"`
	TotalVotes  int       `json:"totalVotes"`
	OptionVotes int       `json:"optionVotes"`
	Percentage  float64   `json:"percentage"`
}
