package model

import (
    "fmt"
    "time"
)

// DateLayout is the wire and storage format of a session date.
const DateLayout = "2006-01-02"

// Session is a single screening of a movie in a room.  The triple
// (Date, TimeSlot, RoomNumber) is unique across all sessions.
type Session struct {
    ID         string    `json:"id"`         // sessions.id (UUID)
    Date       string    `json:"date"`       // sessions.date, YYYY-MM-DD
    TimeSlot   TimeSlot  `json:"timeSlot"`   // sessions.time_slot
    RoomNumber int       `json:"roomNumber"` // sessions.room_number
    MovieID    string    `json:"movieId"`    // sessions.movie_id
    CreatedAt  time.Time `json:"createdAt"`  // sessions.created_at
    UpdatedAt  time.Time `json:"updatedAt"`  // sessions.updated_at
}

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
    if loc == nil {
        loc = time.UTC
    }
    t, err := time.ParseInLocation(DateLayout, s, loc)
    if err != nil {
        return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
    }
    return t, nil
}

// TimeSlot is one of the fixed two-hour screening windows.
type TimeSlot string

const (
    Slot10to12 TimeSlot = "10:00-12:00"
    Slot12to14 TimeSlot = "12:00-14:00"
    Slot14to16 TimeSlot = "14:00-16:00"
    Slot16to18 TimeSlot = "16:00-18:00"
    Slot18to20 TimeSlot = "18:00-20:00"
    Slot20to22 TimeSlot = "20:00-22:00"
    Slot22to00 TimeSlot = "22:00-00:00"
)

// TimeSlots lists every bookable slot in chronological order.
var TimeSlots = []TimeSlot{Slot10to12, Slot12to14, Slot14to16, Slot16to18, Slot18to20, Slot20to22, Slot22to00}

// Valid reports whether s is a known slot.
func (s TimeSlot) Valid() bool {
    for _, v := range TimeSlots {
        if v == s {
            return true
        }
    }
    return false
}

// Start returns the wall-clock hour and minute at which the slot begins.
func (s TimeSlot) Start() (hour, minute int, err error) {
    if !s.Valid() {
        return 0, 0, fmt.Errorf("unknown time slot %q", string(s))
    }
    if _, err := fmt.Sscanf(string(s), "%d:%d-", &hour, &minute); err != nil {
        return 0, 0, fmt.Errorf("parse time slot %q: %w", string(s), err)
    }
    return hour, minute, nil
}
