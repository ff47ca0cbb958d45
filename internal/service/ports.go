// Package service holds the booking rules: slot exclusivity, the movie
// catalog, the ticket lifecycle and user accounts.  Persistence is reached
// through the interfaces below; internal/repository implements them.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// Transactor runs fn atomically.  Repository calls made with the context
// passed to fn join the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type MovieRepository interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	Update(ctx context.Context, id string, p repository.MoviePatch) error
	Deactivate(ctx context.Context, id string) error
	ListActive(ctx context.Context, q repository.MovieQuery) ([]model.Movie, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Movie, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByIDForMovie(ctx context.Context, id, movieID string) (*model.Session, error)
	FindBySlot(ctx context.Context, date string, slot model.TimeSlot, room int, excludeID string) (*model.Session, error)
	Update(ctx context.Context, id string, p repository.SessionPatch) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByMovie(ctx context.Context, movieID string) (int64, error)
	ListByMovieIDs(ctx context.Context, movieIDs []string) (map[string][]model.Session, error)
}

type TicketRepository interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
	ListUsedByUser(ctx context.Context, userID string) ([]model.Ticket, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

type TokenRepository interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// EventPublisher receives ticket events after the state change commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TicketEvent) error
}

// Principal is the authenticated caller of ticket and user operations.
type Principal struct {
	ID    string
	Email string
	Age   int
	Role  model.Role
}

// IsManager reports whether the caller holds the MANAGER role.
func (p Principal) IsManager() bool { return p.Role == model.RoleManager }

// DeleteResult is returned by hard deletes.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}
