package domain

import (
	"time"

	"github.com/google/uuid"
)

type PollStatus string

const (
	PollStatusOpen   PollStatus = "open"
	PollStatusClosed PollStatus = "closed"
)

type PollVisibility string

const (
	PollVisibilityPublic  PollVisibility = "public"
	PollVisibilityPrivate PollVisibility = "private"
)

type Poll struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Visibility  PollVisibility `db:"visibility"`
	Status      PollStatus     `db:"status"`
	ExpiresAt   *time.Time     `db:"expires_at"`
	CreatorID   uuid.UUID      `db:"creator_id"`
	Options     []Option       `db:"-"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// EffectivelyClosed reports whether the poll rejects votes as of now.
// A poll past its expiry is closed even before the sweeper has persisted
// the status change - the stored status is bookkeeping, not the source
// of truth for vote admission.
func (p *Poll) EffectivelyClosed(now time.Time) bool {
	if p.Status == PollStatusClosed {
		return true
	}
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Option returns the poll's option with the given ID, if it belongs to the poll.
func (p *Poll) Option(optionID uuid.UUID) (*Option, bool) {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i], true
		}
	}
	return nil, false
}

type Option struct {
	ID        uuid.UUID `db:"id"`
	PollID    uuid.UUID `db:"poll_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}
