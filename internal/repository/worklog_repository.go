package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serviceflow/helpdesk-service/internal/domain"
)

// WorklogRepository persists time-tracking sessions. The one-open-session-
// per-user rule is enforced here, transactionally, so it survives process
// restarts and concurrent starts.
type WorklogRepository interface {
	// Start opens a session, failing with ErrActiveSession if the user
	// already has an open worklog on any ticket.
	Start(ctx context.Context, ticketID, userID string) (*domain.Worklog, error)
	// StopOpen closes the user's open session on this ticket, failing with
	// ErrNoActiveSession when none exists.
	StopOpen(ctx context.Context, ticketID, userID string) (*domain.Worklog, error)
	ListByTicket(ctx context.Context, ticketID string, userID *string) ([]domain.Worklog, error)
}

type worklogRepository struct {
	pool *pgxpool.Pool
}

// NewWorklogRepository instantiates repository.
func NewWorklogRepository(pool *pgxpool.Pool) WorklogRepository {
	return &worklogRepository{pool: pool}
}

func (r *worklogRepository) Start(ctx context.Context, ticketID, userID string) (*domain.Worklog, error) {
	// The NOT EXISTS guard covers the common path; the partial unique
	// index worklogs_one_active_per_user settles the race between two
	// simultaneous starts, so exactly one succeeds.
	const query = `
        INSERT INTO worklogs (ticket_id, user_id)
        SELECT $1, $2
        WHERE NOT EXISTS (SELECT 1 FROM worklogs WHERE user_id=$2 AND ended_at IS NULL)
        RETURNING id, ticket_id, user_id, started_at, ended_at`

	var worklog domain.Worklog
	err := r.pool.QueryRow(ctx, query, ticketID, userID).Scan(
		&worklog.ID,
		&worklog.TicketID,
		&worklog.UserID,
		&worklog.StartedAt,
		&worklog.EndedAt,
	)
	if err == nil {
		return &worklog, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrActiveSession
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrActiveSession
	}
	return nil, err
}

func (r *worklogRepository) StopOpen(ctx context.Context, ticketID, userID string) (*domain.Worklog, error) {
	const query = `
        UPDATE worklogs SET ended_at=NOW()
        WHERE ticket_id=$1 AND user_id=$2 AND ended_at IS NULL
        RETURNING id, ticket_id, user_id, started_at, ended_at`

	var worklog domain.Worklog
	err := r.pool.QueryRow(ctx, query, ticketID, userID).Scan(
		&worklog.ID,
		&worklog.TicketID,
		&worklog.UserID,
		&worklog.StartedAt,
		&worklog.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	return &worklog, nil
}

func (r *worklogRepository) ListByTicket(ctx context.Context, ticketID string, userID *string) ([]domain.Worklog, error) {
	query := `SELECT id, ticket_id, user_id, started_at, ended_at FROM worklogs WHERE ticket_id=$1`
	args := []any{ticketID}
	if userID != nil {
		query += ` AND user_id=$2`
		args = append(args, *userID)
	}
	query += ` ORDER BY started_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Worklog
	for rows.Next() {
		var worklog domain.Worklog
		if err := rows.Scan(
			&worklog.ID,
			&worklog.TicketID,
			&worklog.UserID,
			&worklog.StartedAt,
			&worklog.EndedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, worklog)
	}
	return result, rows.Err()
}
