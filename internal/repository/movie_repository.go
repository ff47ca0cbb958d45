package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// MovieSort is a sortable movies column.
type MovieSort string

const (
	SortByName           MovieSort = "name"
	SortByAgeRestriction MovieSort = "age_restriction"
	SortByCreatedAt      MovieSort = "created_at"
)

// AgeCondition selects how MovieQuery.AgeRestriction is compared.
type AgeCondition int

const (
	AgeExact AgeCondition = iota
	AgeGreaterOrEqual
	AgeLesser
)

// MovieQuery filters the active movie listing.  Nil filters are ignored.
type MovieQuery struct {
	Name           *string
	AgeRestriction *int
	AgeCondition   AgeCondition
	SortBy         MovieSort
	Descending     bool
}

// MoviePatch lists the scalar columns to overwrite.  Nil fields are kept.
type MoviePatch struct {
	Name           *string
	AgeRestriction *int
}

// Empty reports whether the patch changes nothing.
func (p MoviePatch) Empty() bool { return p.Name == nil && p.AgeRestriction == nil }

const movieColumns = "id, name, age_restriction, is_active, created_at, updated_at"

// MovieRepo manages persistence for movies.  Sessions are loaded through
// SessionRepo.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

func scanMovie(row scanner) (model.Movie, error) {
	var m model.Movie
	err := row.Scan(&m.ID, &m.Name, &m.AgeRestriction, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts m as an active movie and fills ID and timestamps.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.IsActive = true
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt

	const q = `INSERT INTO movies (id, name, age_restriction, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, m.ID, m.Name, m.AgeRestriction, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return translate(err)
}

// GetByID returns the movie regardless of its active flag.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	m, err := scanMovie(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Update writes the non-nil fields of p and bumps updated_at.
func (r *MovieRepo) Update(ctx context.Context, id string, p MoviePatch) error {
	if p.Empty() {
		return nil
	}
	set := []string{}
	args := []any{}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}
	if p.AgeRestriction != nil {
		set = append(set, "age_restriction = ?")
		args = append(args, *p.AgeRestriction)
	}
	set = append(set, "updated_at = ?")
	args = append(args, now(), id)

	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE movies SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate clears is_active.  Sessions and tickets are not touched.
func (r *MovieRepo) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE movies SET is_active = ?, updated_at = ? WHERE id = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, false, now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns active movies matching q.  The sort column must be
// one of the MovieSort constants; anything else falls back to name.
func (r *MovieRepo) ListActive(ctx context.Context, q MovieQuery) ([]model.Movie, error) {
	where := []string{"is_active = ?"}
	args := []any{true}

	if q.Name != nil {
		where = append(where, "name = ?")
		args = append(args, *q.Name)
	}
	if q.AgeRestriction != nil {
		switch q.AgeCondition {
		case AgeGreaterOrEqual:
			where = append(where, "age_restriction >= ?")
		case AgeLesser:
			where = append(where, "age_restriction < ?")
		default:
			where = append(where, "age_restriction = ?")
		}
		args = append(args, *q.AgeRestriction)
	}

	sortCol := SortByName
	switch q.SortBy {
	case SortByAgeRestriction, SortByCreatedAt:
		sortCol = q.SortBy
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	sqlText := `SELECT ` + movieColumns + ` FROM movies WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ` + string(sortCol) + ` ` + dir + `, id ASC`
	return r.list(ctx, sqlText, args...)
}

// FindByIDs returns the movies with the given ids in name order.  Unknown
// ids are ignored.
func (r *MovieRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Movie, error) {
	if len(ids) == 0 {
		return []model.Movie{}, nil
	}
	sqlText := `SELECT ` + movieColumns + ` FROM movies WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY name ASC, id ASC`
	return r.list(ctx, sqlText, stringArgs(ids)...)
}

func (r *MovieRepo) list(ctx context.Context, sqlText string, args ...any) ([]model.Movie, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
