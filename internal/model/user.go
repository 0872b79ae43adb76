package model

import "time"

// User represents a row in the `users` table.  Users are referenced by
// bookings and never mutated by the booking flow.
type User struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"` // unique, stored lower-cased
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
