package model

import "time"

// Booking records a committed hold of SeatsBooked seats on an event by a
// user.  Its existence consumes capacity; deleting it releases the seats.
type Booking struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	EventID     uint64    `json:"event_id"`
	SeatsBooked int       `json:"seats_booked"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingDetail is a booking joined with the user and event it references.
type BookingDetail struct {
	Booking
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
}
