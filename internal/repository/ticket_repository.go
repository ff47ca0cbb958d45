package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

const ticketColumns = "id, user_id, session_id, movie_id, used, created_at, updated_at"

// TicketRepo manages persistence for tickets.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

func scanTicket(row scanner) (model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.UserID, &t.SessionID, &t.MovieID, &t.Used, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts an unused ticket and fills ID and timestamps.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Used = false
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt

	const q = `INSERT INTO tickets (id, user_id, session_id, movie_id, used, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, t.ID, t.UserID, t.SessionID, t.MovieID, t.Used, t.CreatedAt, t.UpdatedAt)
	return translate(err)
}

// GetByID returns a ticket or ErrNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	t, err := scanTicket(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkUsed flips used from false to true.  It returns false when the
// ticket was already used (or does not exist), so two concurrent calls
// cannot both succeed.
func (r *TicketRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE tickets SET used = ?, updated_at = ? WHERE id = ? AND used = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, true, now(), id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListUsedByUser returns the user's used tickets, oldest first.
func (r *TicketRepo) ListUsedByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = ? AND used = ? ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, userID, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
