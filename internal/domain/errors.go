package domain

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("poll option not found")
	ErrVoteNotFound   = errors.New("vote not found")

	// ErrAlreadyVoted is surfaced by the vote store when the storage-level
	// uniqueness constraint on (voter_id, poll_id) rejects an insert.
	ErrAlreadyVoted = errors.New("user already voted on this poll")

	ErrPollClosed     = errors.New("poll is closed")
	ErrNotPollCreator = errors.New("only the poll creator may close it")

	// ErrPrivatePoll rejects anonymous reads of private polls.
	ErrPrivatePoll = errors.New("poll is private")

	// ErrEmailTaken is surfaced by the user store when the unique
	// constraint on email rejects an insert.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidInput marks request payloads the application layer rejects
	// before touching storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable wraps transient infrastructure failures. The
	// engine never retries internally; callers decide.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
