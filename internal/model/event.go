package model

import "time"

// Event is a scheduled occasion with a fixed seat capacity.  Available
// capacity is never stored; it is derived from the bookings that reference
// the event.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – display name.
//	Description – optional free text.
//	EventDate   – when the event takes place (UTC).
//	TotalSeats  – capacity, never negative.
type Event struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	TotalSeats  int       `json:"total_seats"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasOccurred reports whether the event date is not strictly after now.
func (e Event) HasOccurred(now time.Time) bool {
	return !e.EventDate.After(now)
}

// EventView is the read model served to clients: the event together with
// its derived seat counts.
type EventView struct {
	Event
	BookedSeats    int `json:"booked_seats"`
	AvailableSeats int `json:"available_seats"`
}

// Availability is the seat snapshot of one event.
type Availability struct {
	EventID        uint64 `json:"event_id"`
	TotalSeats     int    `json:"total_seats"`
	BookedSeats    int    `json:"booked_seats"`
	AvailableSeats int    `json:"available_seats"`
}
