package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollwave/pollwave/internal/domain"
)

type PollRepo struct {
	pool *pgxpool.Pool
}

func NewPollRepo(pool *pgxpool.Pool) *PollRepo {
	return &PollRepo{pool: pool}
}

const pollColumns = "id, title, description, visibility, status, expires_at, creator_id, created_at, updated_at"

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var p domain.Poll
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Visibility, &p.Status,
		&p.ExpiresAt, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PollRepo) GetByID(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+pollColumns+" FROM polls WHERE id = $1", pollID)
	poll, err := scanPoll(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, storageErr("failed to get poll by ID", err)
	}

	options, err := r.loadOptions(ctx, pollID)
	if err != nil {
		return nil, err
	}
	poll.Options = options
	return poll, nil
}

func (r *PollRepo) loadOptions(ctx context.Context, pollID uuid.UUID) ([]domain.Option, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, poll_id, text, created_at
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY position, id`, pollID)
	if err != nil {
		return nil, storageErr("failed to load poll options", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.CreatedAt); err != nil {
			return nil, storageErr("failed to scan poll option", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to load poll options", err)
	}
	return options, nil
}

// Create inserts the poll and its options in one transaction. Options are
// timestamped in insertion order so listings keep the creator's ordering.
func (r *PollRepo) Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO polls (id, title, description, visibility, status, expires_at, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+pollColumns,
		poll.ID, poll.Title, poll.Description, poll.Visibility, poll.Status, poll.ExpiresAt, poll.CreatorID)

	created, err := scanPoll(row)
	if err != nil {
		return nil, storageErr("failed to create poll", err)
	}

	for i := range poll.Options {
		opt := &poll.Options[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO poll_options (id, poll_id, text, position, created_at)
			VALUES ($1, $2, $3, $4, now())
			RETURNING created_at`,
			opt.ID, poll.ID, opt.Text, i).Scan(&opt.CreatedAt)
		if err != nil {
			return nil, storageErr("failed to create poll option", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("failed to commit transaction", err)
	}

	created.Options = poll.Options
	return created, nil
}

func (r *PollRepo) List(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM polls
		WHERE visibility = 'public' AND ($1 = '' OR title ILIKE '%' || $1 || '%')`,
		params.Search).Scan(&total)
	if err != nil {
		return nil, 0, storageErr("failed to count polls", err)
	}

	offset := (params.Page - 1) * params.Limit
	rows, err := r.pool.Query(ctx, `
		SELECT `+pollColumns+` FROM polls
		WHERE visibility = 'public' AND ($1 = '' OR title ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, params.Search, params.Limit, offset)
	if err != nil {
		return nil, 0, storageErr("failed to list polls", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, 0, storageErr("failed to scan poll", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("failed to list polls", err)
	}

	for _, poll := range polls {
		options, err := r.loadOptions(ctx, poll.ID)
		if err != nil {
			return nil, 0, err
		}
		poll.Options = options
	}

	return polls, total, nil
}

// ListOpenExpired returns open polls strictly past their expiry. The strict
// comparison mirrors Poll.EffectivelyClosed: a poll expiring exactly at asOf
// still accepts votes, so the sweeper must not close it yet.
func (r *PollRepo) ListOpenExpired(ctx context.Context, asOf time.Time) ([]*domain.Poll, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+pollColumns+` FROM polls
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2`,
		domain.PollStatusOpen, asOf)
	if err != nil {
		return nil, storageErr("failed to list expired polls", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, storageErr("failed to scan poll", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to list expired polls", err)
	}
	return polls, nil
}

func (r *PollRepo) UpdateStatus(ctx context.Context, pollID uuid.UUID, status domain.PollStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE polls SET status = $2, updated_at = now() WHERE id = $1`,
		pollID, status)
	if err != nil {
		return storageErr("failed to update poll status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}
