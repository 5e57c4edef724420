package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollwave/pollwave/internal/domain"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

const voteColumns = "voter_id, poll_id, option_id, created_at, updated_at"

func scanVote(row pgx.Row) (*domain.Vote, error) {
	var v domain.Vote
	err := row.Scan(&v.VoterID, &v.PollID, &v.OptionID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Save inserts the vote, relying on the votes table's composite primary key
// to reject a second vote for the same (voter, poll). The unique-violation
// SQLSTATE comes back as domain.ErrAlreadyVoted; the ledger never pre-checks.
func (r *VoteRepo) Save(ctx context.Context, vote *domain.Vote) (*domain.Vote, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO votes (voter_id, poll_id, option_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING `+voteColumns,
		vote.VoterID, vote.PollID, vote.OptionID)

	saved, err := scanVote(row)
	if isUniqueViolation(err) {
		return nil, domain.ErrAlreadyVoted
	}
	if err != nil {
		return nil, storageErr("failed to save vote", err)
	}
	return saved, nil
}

func (r *VoteRepo) Find(ctx context.Context, voterID, pollID uuid.UUID) (*domain.Vote, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+voteColumns+` FROM votes
		WHERE voter_id = $1 AND poll_id = $2`, voterID, pollID)

	vote, err := scanVote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVoteNotFound
	}
	if err != nil {
		return nil, storageErr("failed to find vote", err)
	}
	return vote, nil
}

func (r *VoteRepo) Delete(ctx context.Context, voterID, pollID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM votes WHERE voter_id = $1 AND poll_id = $2`, voterID, pollID)
	if err != nil {
		return storageErr("failed to delete vote", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

func (r *VoteRepo) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+voteColumns+` FROM votes WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, storageErr("failed to list votes", err)
	}
	defer rows.Close()

	var votes []*domain.Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, storageErr("failed to scan vote", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to list votes", err)
	}
	return votes, nil
}
