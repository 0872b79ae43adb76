package model

import "time"

// Notification is a message produced for a user when one of their bookings
// changes.  At most one notification exists per (BookingID, Kind).
type Notification struct {
	ID        uint64     `json:"id"`
	BookingID uint64     `json:"booking_id"`
	UserID    uint64     `json:"user_id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
