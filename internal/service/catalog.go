package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// NewMovie describes a movie to create together with its sessions.
type NewMovie struct {
	Name           string
	AgeRestriction int
	Sessions       []NewSession
}

// SessionUpdate targets one existing session of the movie being updated.
type SessionUpdate struct {
	ID string
	SessionChange
}

// MovieUpdate lists the changes to apply to a movie.  Nil scalars are kept.
type MovieUpdate struct {
	Name           *string
	AgeRestriction *int
	Sessions       []SessionUpdate
}

// MovieFilter drives ListActiveMovies.  SortBy accepts name (default),
// ageRestriction or createdAt; SortOrder accepts ASC (default) or DESC.
// AgeCondition accepts greaterOrEqual, lesser, or empty for exact match.
type MovieFilter struct {
	SortBy         string
	SortOrder      string
	Name           *string
	AgeRestriction *int
	AgeCondition   string
}

var movieSortFields = map[string]repository.MovieSort{
	"":               repository.SortByName,
	"name":           repository.SortByName,
	"ageRestriction": repository.SortByAgeRestriction,
	"createdAt":      repository.SortByCreatedAt,
}

var ageConditions = map[string]repository.AgeCondition{
	"":               repository.AgeExact,
	"exact":          repository.AgeExact,
	"greaterOrEqual": repository.AgeGreaterOrEqual,
	"lesser":         repository.AgeLesser,
}

func (f MovieFilter) query() (repository.MovieQuery, error) {
	sortBy, ok := movieSortFields[f.SortBy]
	if !ok {
		return repository.MovieQuery{}, apperr.Validation("sortBy %q is not supported", f.SortBy)
	}
	var desc bool
	switch strings.ToUpper(f.SortOrder) {
	case "", "ASC":
	case "DESC":
		desc = true
	default:
		return repository.MovieQuery{}, apperr.Validation("sortOrder must be ASC or DESC")
	}
	cond, ok := ageConditions[f.AgeCondition]
	if !ok {
		return repository.MovieQuery{}, apperr.Validation("ageCondition %q is not supported", f.AgeCondition)
	}
	return repository.MovieQuery{
		Name:           f.Name,
		AgeRestriction: f.AgeRestriction,
		AgeCondition:   cond,
		SortBy:         sortBy,
		Descending:     desc,
	}, nil
}

// CatalogService manages movies and orchestrates their sessions.
type CatalogService struct {
	movies   MovieRepository
	sessions SessionRepository
	booking  *BookingService
	tx       Transactor
	log      *zap.Logger
}

func NewCatalogService(movies MovieRepository, sessions SessionRepository, booking *BookingService, tx Transactor, log *zap.Logger) *CatalogService {
	return &CatalogService{
		movies:   movies,
		sessions: sessions,
		booking:  booking,
		tx:       tx,
		log:      log.Named("catalog"),
	}
}

func validateMovieScalars(name string, age int) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name is required")
	}
	if age < 0 {
		return apperr.Validation("ageRestriction must be zero or greater")
	}
	return nil
}

// CreateMovie inserts a movie and its sessions in one transaction.  A slot
// conflict on any session leaves nothing behind.
func (s *CatalogService) CreateMovie(ctx context.Context, in NewMovie) (*model.Movie, error) {
	if err := validateMovieScalars(in.Name, in.AgeRestriction); err != nil {
		return nil, err
	}
	var out *model.Movie
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.createMovie(ctx, in)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("movie created", zap.String("movie_id", out.ID), zap.Int("sessions", len(out.Sessions)))
	return out, nil
}

func (s *CatalogService) createMovie(ctx context.Context, in NewMovie) (*model.Movie, error) {
	m := &model.Movie{Name: strings.TrimSpace(in.Name), AgeRestriction: in.AgeRestriction}
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	m.Sessions = make([]model.Session, 0, len(in.Sessions))
	for _, ns := range in.Sessions {
		sess, err := s.booking.AddSessionToMovie(ctx, m, ns)
		if err != nil {
			return nil, err
		}
		m.Sessions = append(m.Sessions, *sess)
	}
	sortSessions(m.Sessions)
	return m, nil
}

// UpdateMovie diff-updates the listed sessions and the movie's scalar
// fields in one transaction and returns the refreshed movie.
func (s *CatalogService) UpdateMovie(ctx context.Context, id string, in MovieUpdate) (*model.Movie, error) {
	var out *model.Movie
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.getMovie(ctx, id)
		if err != nil {
			return err
		}

		for _, su := range in.Sessions {
			sess, err := s.sessions.GetByIDForMovie(ctx, su.ID, m.ID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperr.SessionNotFound.WithMessage("Session %s not found for this movie", su.ID)
				}
				return fmt.Errorf("load session: %w", err)
			}
			if _, err := s.booking.UpdateSessionIfChanged(ctx, sess, su.SessionChange); err != nil {
				return err
			}
		}

		patch := repository.MoviePatch{}
		if in.Name != nil && strings.TrimSpace(*in.Name) != m.Name {
			name := strings.TrimSpace(*in.Name)
			patch.Name = &name
		}
		if in.AgeRestriction != nil && *in.AgeRestriction != m.AgeRestriction {
			patch.AgeRestriction = in.AgeRestriction
		}
		if !patch.Empty() {
			name, age := m.Name, m.AgeRestriction
			if patch.Name != nil {
				name = *patch.Name
			}
			if patch.AgeRestriction != nil {
				age = *patch.AgeRestriction
			}
			if err := validateMovieScalars(name, age); err != nil {
				return err
			}
			if err := s.movies.Update(ctx, m.ID, patch); err != nil {
				return fmt.Errorf("update movie: %w", err)
			}
		}

		out, err = s.loadMovie(ctx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMovie deactivates a movie.  Its sessions and tickets stay.
func (s *CatalogService) DeleteMovie(ctx context.Context, id string) (*model.Movie, error) {
	m, err := s.getMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.movies.Deactivate(ctx, m.ID); err != nil {
		return nil, fmt.Errorf("deactivate movie: %w", err)
	}
	s.log.Info("movie deactivated", zap.String("movie_id", m.ID))
	return s.loadMovie(ctx, m.ID)
}

// GetMovie returns a movie with its sessions, active or not.
func (s *CatalogService) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	return s.loadMovie(ctx, id)
}

// ListActiveMovies returns the active movies matching f with their
// sessions.  An empty result is reported as ThereAreNoMovies.
func (s *CatalogService) ListActiveMovies(ctx context.Context, f MovieFilter) ([]model.Movie, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	movies, err := s.movies.ListActive(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	if len(movies) == 0 {
		return nil, apperr.ThereAreNoMovies
	}
	if err := s.attachSessions(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// BulkCreateMovies creates every movie or none of them.
func (s *CatalogService) BulkCreateMovies(ctx context.Context, in []NewMovie) ([]model.Movie, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("movies must not be empty")
	}
	for i, nm := range in {
		if err := validateMovieScalars(nm.Name, nm.AgeRestriction); err != nil {
			e, _ := apperr.As(err)
			return nil, e.WithMessage("movies[%d]: %s", i, e.Message)
		}
	}

	out := make([]model.Movie, 0, len(in))
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, nm := range in {
			m, err := s.createMovie(ctx, nm)
			if err != nil {
				return err
			}
			out = append(out, *m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("movies bulk created", zap.Int("count", len(out)))
	return out, nil
}

// BulkDeleteMovies deactivates each movie and hard-deletes its sessions.
// Every id runs in its own transaction; unknown ids are skipped.  On
// failure the movies already processed are returned with the error.
func (s *CatalogService) BulkDeleteMovies(ctx context.Context, ids []string) ([]model.Movie, error) {
	out := []model.Movie{}
	for _, id := range uniqueIDs(ids) {
		var (
			m       *model.Movie
			skipped bool
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			found, err := s.movies.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					skipped = true
					return nil
				}
				return fmt.Errorf("load movie %s: %w", id, err)
			}
			if err := s.movies.Deactivate(ctx, id); err != nil {
				return fmt.Errorf("deactivate movie %s: %w", id, err)
			}
			if _, err := s.sessions.DeleteByMovie(ctx, id); err != nil {
				return fmt.Errorf("delete sessions of movie %s: %w", id, err)
			}
			found.IsActive = false
			found.Sessions = []model.Session{}
			m = found
			return nil
		})
		if err != nil {
			return out, err
		}
		if skipped {
			s.log.Debug("bulk delete skipped unknown movie", zap.String("movie_id", id))
			continue
		}
		out = append(out, *m)
	}
	s.log.Info("movies bulk deleted", zap.Int("count", len(out)))
	return out, nil
}

// DeleteMovieSessions hard-deletes all sessions of an existing movie.
func (s *CatalogService) DeleteMovieSessions(ctx context.Context, movieID string) (DeleteResult, error) {
	if _, err := s.getMovie(ctx, movieID); err != nil {
		return DeleteResult{}, err
	}
	return s.booking.DeleteAllSessionsOfMovie(ctx, movieID)
}

// FindMoviesByIDs returns the movies with the given ids and their
// sessions.  Unknown ids are ignored.
func (s *CatalogService) FindMoviesByIDs(ctx context.Context, ids []string) ([]model.Movie, error) {
	movies, err := s.movies.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("find movies: %w", err)
	}
	if err := s.attachSessions(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (s *CatalogService) getMovie(ctx context.Context, id string) (*model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.MovieNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}
	return m, nil
}

func (s *CatalogService) loadMovie(ctx context.Context, id string) (*model.Movie, error) {
	m, err := s.getMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []model.Movie{*m}
	if err := s.attachSessions(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *CatalogService) attachSessions(ctx context.Context, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]string, len(movies))
	for i := range movies {
		ids[i] = movies[i].ID
	}
	byMovie, err := s.sessions.ListByMovieIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	for i := range movies {
		sess := byMovie[movies[i].ID]
		if sess == nil {
			sess = []model.Session{}
		}
		movies[i].Sessions = sess
	}
	return nil
}

func sortSessions(ss []model.Session) {
	sort.Slice(ss, func(i, j int) bool {
		a, b := ss[i], ss[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		return a.RoomNumber < b.RoomNumber
	})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
