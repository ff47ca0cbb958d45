// Package queue defines the ticket events published to the message broker
// and the publishers and consumer that move them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// Ticket event types.
const (
	EventTicketPurchased = "ticket.purchased"
	EventTicketWatched   = "ticket.watched"
)

// TicketEvent is published after a ticket is bought or consumed.  It
// carries enough of the session for consumers to log or notify without
// querying the primary database.
type TicketEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	TicketID    string    `json:"ticket_id"`
	UserID      string    `json:"user_id"`
	MovieID     string    `json:"movie_id"`
	SessionID   string    `json:"session_id"`
	SessionDate string    `json:"session_date"`
	TimeSlot    string    `json:"time_slot"`
	RoomNumber  int       `json:"room_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewTicketEvent builds an event of the given type with a fresh id.
func NewTicketEvent(eventType string, t model.Ticket, s model.Session, at time.Time) TicketEvent {
	return TicketEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		TicketID:    t.ID,
		UserID:      t.UserID,
		MovieID:     t.MovieID,
		SessionID:   s.ID,
		SessionDate: s.Date,
		TimeSlot:    string(s.TimeSlot),
		RoomNumber:  s.RoomNumber,
		OccurredAt:  at.UTC(),
	}
}
