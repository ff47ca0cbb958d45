package model

import "time"

// Ticket is a purchased admission to a session.  Used moves from false to
// true exactly once and never back.
type Ticket struct {
    ID        string    `json:"id"`        // tickets.id (UUID)
    UserID    string    `json:"userId"`    // tickets.user_id, immutable
    SessionID string    `json:"sessionId"` // tickets.session_id
    MovieID   string    `json:"movieId"`   // tickets.movie_id, copied at purchase
    Used      bool      `json:"used"`      // tickets.used
    CreatedAt time.Time `json:"createdAt"` // tickets.created_at
    UpdatedAt time.Time `json:"updatedAt"` // tickets.updated_at
}
