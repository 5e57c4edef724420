package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote records a voter's single choice on a poll. Identity is the
// (voter_id, poll_id) pair; a voter never holds more than one vote per poll.
type Vote struct {
	VoterID   uuid.UUID `db:"voter_id"`
	PollID    uuid.UUID `db:"poll_id"`
	OptionID  uuid.UUID `db:"option_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type User struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	SecretHash string    `db:"secret_hash"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
