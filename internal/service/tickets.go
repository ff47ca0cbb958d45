package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
	"github.com/iliyamo/cinema-ticketing/internal/clock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// TicketService runs the ticket state machine: PURCHASED (used=false) to
// WATCHED (used=true).  WATCHED is terminal.
type TicketService struct {
	tickets TicketRepository
	movies  MovieRepository
	booking *BookingService
	events  EventPublisher
	clock   clock.Clock
	log     *zap.Logger
}

func NewTicketService(tickets TicketRepository, movies MovieRepository, booking *BookingService, events EventPublisher, clk clock.Clock, log *zap.Logger) *TicketService {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	return &TicketService{
		tickets: tickets,
		movies:  movies,
		booking: booking,
		events:  events,
		clock:   clk,
		log:     log.Named("tickets"),
	}
}

// Checkout buys a ticket for the session on behalf of user.
func (s *TicketService) Checkout(ctx context.Context, user Principal, sessionID string) (*model.Ticket, error) {
	sess, err := s.booking.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	movie, err := s.movies.GetByID(ctx, sess.MovieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.SessionNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}
	if !movie.IsActive {
		return nil, apperr.MovieIsNotActive
	}
	// strictly older than the restriction
	if user.Age <= movie.AgeRestriction {
		return nil, apperr.UserNotOldEnough
	}
	passed, err := s.booking.sessionPassed(sess)
	if err != nil {
		return nil, err
	}
	if passed {
		return nil, apperr.SessionAlreadyPassed
	}

	t := &model.Ticket{UserID: user.ID, SessionID: sess.ID, MovieID: movie.ID}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	s.log.Info("ticket purchased",
		zap.String("ticket_id", t.ID),
		zap.String("user_id", user.ID),
		zap.String("session_id", sess.ID),
	)
	s.publish(ctx, queue.EventTicketPurchased, *t, *sess)
	return t, nil
}

// Watch consumes a ticket.  Only the owner may watch it, once, before the
// session has started.
func (s *TicketService) Watch(ctx context.Context, user Principal, ticketID string) (*model.Ticket, error) {
	t, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Used {
		return nil, apperr.TicketAlreadyUsed
	}
	if t.UserID != user.ID {
		return nil, apperr.TicketDoesNotBelongToUser
	}
	sess, err := s.booking.GetSession(ctx, t.SessionID)
	if err != nil {
		return nil, err
	}
	passed, err := s.booking.sessionPassed(sess)
	if err != nil {
		return nil, err
	}
	if passed {
		return nil, apperr.SessionAlreadyPassed
	}

	ok, err := s.tickets.MarkUsed(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("mark ticket used: %w", err)
	}
	if !ok {
		// a concurrent watch got there first
		return nil, apperr.TicketAlreadyUsed
	}
	t.Used = true
	t.UpdatedAt = s.clock.Now().UTC()
	s.log.Info("ticket watched", zap.String("ticket_id", t.ID), zap.String("user_id", user.ID))
	s.publish(ctx, queue.EventTicketWatched, *t, *sess)
	return t, nil
}

// GetTicket returns a ticket to its owner or to a manager.
func (s *TicketService) GetTicket(ctx context.Context, user Principal, id string) (*model.Ticket, error) {
	t, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != user.ID && !user.IsManager() {
		return nil, apperr.TicketDoesNotBelongToUser
	}
	return t, nil
}

// GetUsedTickets returns every ticket the user has watched.
func (s *TicketService) GetUsedTickets(ctx context.Context, userID string) ([]model.Ticket, error) {
	out, err := s.tickets.ListUsedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list used tickets: %w", err)
	}
	return out, nil
}

func (s *TicketService) loadTicket(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.TicketNotFound
		}
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	return t, nil
}

// publish is best effort: the ticket state is already committed.
func (s *TicketService) publish(ctx context.Context, eventType string, t model.Ticket, sess model.Session) {
	ev := queue.NewTicketEvent(eventType, t, sess, s.clock.Now())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish ticket event",
			zap.String("type", eventType),
			zap.String("ticket_id", t.ID),
			zap.Error(err),
		)
	}
}
