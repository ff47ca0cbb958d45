package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// SessionPatch lists the slot columns to overwrite.  Nil fields are kept.
type SessionPatch struct {
	Date       *string
	TimeSlot   *model.TimeSlot
	RoomNumber *int
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool { return p.Date == nil && p.TimeSlot == nil && p.RoomNumber == nil }

const sessionColumns = "id, date, time_slot, room_number, movie_id, created_at, updated_at"

// SessionRepo manages persistence for sessions.  Slot exclusivity is
// enforced by the uq_sessions_slot constraint; writes that hit it return
// ErrDuplicateKey.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

func scanSession(row scanner) (model.Session, error) {
	var (
		s    model.Session
		date time.Time
		slot string
	)
	if err := row.Scan(&s.ID, &date, &slot, &s.RoomNumber, &s.MovieID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return s, err
	}
	s.Date = date.Format(model.DateLayout)
	s.TimeSlot = model.TimeSlot(slot)
	return s, nil
}

// Create inserts s and fills ID and timestamps.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt

	const q = `INSERT INTO sessions (id, date, time_slot, room_number, movie_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, s.ID, s.Date, string(s.TimeSlot), s.RoomNumber, s.MovieID, s.CreatedAt, s.UpdatedAt)
	return translate(err)
}

// GetByID returns a session or ErrNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return r.one(ctx, q, id)
}

// GetByIDForMovie returns the session only when it belongs to movieID.
func (r *SessionRepo) GetByIDForMovie(ctx context.Context, id, movieID string) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND movie_id = ?`
	return r.one(ctx, q, id, movieID)
}

// FindBySlot returns the session occupying (date, slot, room), ignoring
// excludeID when it is non-empty.  ErrNotFound means the slot is free.
func (r *SessionRepo) FindBySlot(ctx context.Context, date string, slot model.TimeSlot, room int, excludeID string) (*model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE date = ? AND time_slot = ? AND room_number = ?`
	args := []any{date, string(slot), room}
	if excludeID != "" {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	return r.one(ctx, q+` LIMIT 1`, args...)
}

// Update writes the non-nil fields of p and bumps updated_at.
func (r *SessionRepo) Update(ctx context.Context, id string, p SessionPatch) error {
	if p.Empty() {
		return nil
	}
	set := []string{}
	args := []any{}
	if p.Date != nil {
		set = append(set, "date = ?")
		args = append(args, *p.Date)
	}
	if p.TimeSlot != nil {
		set = append(set, "time_slot = ?")
		args = append(args, string(*p.TimeSlot))
	}
	if p.RoomNumber != nil {
		set = append(set, "room_number = ?")
		args = append(args, *p.RoomNumber)
	}
	set = append(set, "updated_at = ?")
	args = append(args, now(), id)

	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE sessions SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one session and returns the number of rows deleted.
func (r *SessionRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByMovie removes every session of movieID.
func (r *SessionRepo) DeleteByMovie(ctx context.Context, movieID string) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE movie_id = ?`, movieID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByMovieIDs groups the sessions of the given movies by movie id, each
// group ordered by date, slot and room.
func (r *SessionRepo) ListByMovieIDs(ctx context.Context, movieIDs []string) (map[string][]model.Session, error) {
	out := make(map[string][]model.Session, len(movieIDs))
	if len(movieIDs) == 0 {
		return out, nil
	}
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE movie_id IN (` + placeholders(len(movieIDs)) + `)
		ORDER BY date ASC, time_slot ASC, room_number ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, stringArgs(movieIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out[s.MovieID] = append(out[s.MovieID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SessionRepo) one(ctx context.Context, q string, args ...any) (*model.Session, error) {
	s, err := scanSession(conn(ctx, r.db).QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
