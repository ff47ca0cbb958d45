package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
	"github.com/iliyamo/cinema-ticketing/internal/clock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// NewSession describes a session to schedule.
type NewSession struct {
	Date       string
	TimeSlot   model.TimeSlot
	RoomNumber int
}

// SessionChange lists the slot fields a caller wants to set.  Nil fields
// keep their current value.
type SessionChange struct {
	Date       *string
	TimeSlot   *model.TimeSlot
	RoomNumber *int
}

// BookingService owns room/time-slot exclusivity and session CRUD.
type BookingService struct {
	sessions SessionRepository
	movies   MovieRepository
	tx       Transactor
	clock    clock.Clock
	loc      *time.Location
	log      *zap.Logger
}

func NewBookingService(sessions SessionRepository, movies MovieRepository, tx Transactor, clk clock.Clock, loc *time.Location, log *zap.Logger) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		sessions: sessions,
		movies:   movies,
		tx:       tx,
		clock:    clk,
		loc:      loc,
		log:      log.Named("booking"),
	}
}

func (s *BookingService) validateSlot(date string, slot model.TimeSlot, room int) error {
	if _, err := model.ParseDate(date, s.loc); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if !slot.Valid() {
		return apperr.Validation("timeSlot %q is not a valid slot", string(slot))
	}
	if room <= 0 {
		return apperr.Validation("roomNumber must be a positive integer")
	}
	return nil
}

// CheckRoomAvailability fails with SessionAlreadyExists when any session
// occupies (date, slot, room).  It is a fast path only; the unique
// constraint is what guarantees exclusivity.
func (s *BookingService) CheckRoomAvailability(ctx context.Context, date string, slot model.TimeSlot, room int) error {
	return s.checkAvailability(ctx, date, slot, room, "")
}

func (s *BookingService) checkAvailability(ctx context.Context, date string, slot model.TimeSlot, room int, excludeID string) error {
	_, err := s.sessions.FindBySlot(ctx, date, slot, room, excludeID)
	switch {
	case err == nil:
		return apperr.SessionAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check room availability: %w", err)
	}
}

// AddSession schedules a session for the movie with the given id.
func (s *BookingService) AddSession(ctx context.Context, movieID string, in NewSession) (*model.Session, error) {
	var out *model.Session
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		movie, err := s.movies.GetByID(ctx, movieID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.MovieNotFound
			}
			return fmt.Errorf("load movie: %w", err)
		}
		out, err = s.AddSessionToMovie(ctx, movie, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddSessionToMovie schedules a session for an already loaded movie.  It
// runs in the caller's transaction when ctx carries one.
func (s *BookingService) AddSessionToMovie(ctx context.Context, movie *model.Movie, in NewSession) (*model.Session, error) {
	if err := s.validateSlot(in.Date, in.TimeSlot, in.RoomNumber); err != nil {
		return nil, err
	}

	sess := &model.Session{
		Date:       in.Date,
		TimeSlot:   in.TimeSlot,
		RoomNumber: in.RoomNumber,
		MovieID:    movie.ID,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.CheckRoomAvailability(ctx, in.Date, in.TimeSlot, in.RoomNumber); err != nil {
			return err
		}
		if err := s.sessions.Create(ctx, sess); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				// lost the race to a concurrent insert of the same slot
				return apperr.SessionAlreadyExists.Wrap(err)
			}
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("session added",
		zap.String("session_id", sess.ID),
		zap.String("movie_id", movie.ID),
		zap.String("date", sess.Date),
		zap.String("time_slot", string(sess.TimeSlot)),
		zap.Int("room", sess.RoomNumber),
	)
	return sess, nil
}

// diff returns the patch needed to move sess to the requested values.
func (c SessionChange) diff(sess *model.Session) repository.SessionPatch {
	var p repository.SessionPatch
	if c.Date != nil && *c.Date != sess.Date {
		p.Date = c.Date
	}
	if c.TimeSlot != nil && *c.TimeSlot != sess.TimeSlot {
		p.TimeSlot = c.TimeSlot
	}
	if c.RoomNumber != nil && *c.RoomNumber != sess.RoomNumber {
		p.RoomNumber = c.RoomNumber
	}
	return p
}

// UpdateSessionIfChanged applies the fields of change that differ from
// sess.  Nothing is checked or written when they all match.  On success
// sess holds the new values and the returned bool reports whether a write
// happened.
func (s *BookingService) UpdateSessionIfChanged(ctx context.Context, sess *model.Session, change SessionChange) (bool, error) {
	patch := change.diff(sess)
	if patch.Empty() {
		return false, nil
	}

	next := *sess
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.TimeSlot != nil {
		next.TimeSlot = *patch.TimeSlot
	}
	if patch.RoomNumber != nil {
		next.RoomNumber = *patch.RoomNumber
	}
	if err := s.validateSlot(next.Date, next.TimeSlot, next.RoomNumber); err != nil {
		return false, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkAvailability(ctx, next.Date, next.TimeSlot, next.RoomNumber, sess.ID); err != nil {
			return err
		}
		err := s.sessions.Update(ctx, sess.ID, patch)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrDuplicateKey):
			return apperr.SessionAlreadyExists.Wrap(err)
		case errors.Is(err, repository.ErrNotFound):
			return apperr.SessionNotFound
		default:
			return fmt.Errorf("update session: %w", err)
		}
	})
	if err != nil {
		return false, err
	}
	*sess = next
	return true, nil
}

// GetSession returns the session with the given id.
func (s *BookingService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.SessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// DeleteSession hard-deletes one session.
func (s *BookingService) DeleteSession(ctx context.Context, id string) (DeleteResult, error) {
	n, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return DeleteResult{}, apperr.SessionNotFound
	}
	s.log.Info("session deleted", zap.String("session_id", id))
	return DeleteResult{Deleted: true}, nil
}

// DeleteAllSessionsOfMovie hard-deletes every session of the movie.  The
// caller is expected to have checked that the movie exists.
func (s *BookingService) DeleteAllSessionsOfMovie(ctx context.Context, movieID string) (DeleteResult, error) {
	n, err := s.sessions.DeleteByMovie(ctx, movieID)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete sessions of movie: %w", err)
	}
	if n == 0 {
		return DeleteResult{}, apperr.MovieHasNoSessionsToDelete
	}
	s.log.Info("sessions deleted", zap.String("movie_id", movieID), zap.Int64("count", n))
	return DeleteResult{Deleted: true}, nil
}

// HasSessionPassed reports whether a session on date in slot has started
// by now.  Dates are compared as calendar days in the cinema time zone; a
// session later today has passed once its slot start is at or before now.
func (s *BookingService) HasSessionPassed(date string, slot model.TimeSlot, now time.Time) (bool, error) {
	day, err := model.ParseDate(date, s.loc)
	if err != nil {
		return false, err
	}
	hour, minute, err := slot.Start()
	if err != nil {
		return false, err
	}

	now = now.In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return true, nil
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.loc)
	return !start.After(now), nil
}

// sessionPassed applies HasSessionPassed to a stored session at the
// current instant.
func (s *BookingService) sessionPassed(sess *model.Session) (bool, error) {
	passed, err := s.HasSessionPassed(sess.Date, sess.TimeSlot, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	return passed, nil
}
