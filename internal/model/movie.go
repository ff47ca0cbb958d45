package model

import "time"

// Movie represents a row in the `movies` table.  Movies are never
// physically removed; deleting one clears IsActive.  Sessions is only
// populated by reads that load relations and is ordered by date, slot and
// room.
type Movie struct {
    ID             string    `json:"id"`             // movies.id (UUID)
    Name           string    `json:"name"`           // movies.name, duplicates allowed
    AgeRestriction int       `json:"ageRestriction"` // movies.age_restriction
    IsActive       bool      `json:"isActive"`       // movies.is_active
    Sessions       []Session `json:"sessions"`       // owned sessions
    CreatedAt      time.Time `json:"createdAt"`      // movies.created_at
    UpdatedAt      time.Time `json:"updatedAt"`      // movies.updated_at
}
