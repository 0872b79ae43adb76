// Package queue carries booking domain events between the reservation
// engine and the notification consumer over RabbitMQ or Kafka.
package queue

import "time"

// Subjects published by the reservation engine.  They double as the AMQP
// routing key and the Kafka topic.
const (
	SubjectBookingCreated   = "booking.created"
	SubjectBookingCancelled = "booking.cancelled"
)

// Subjects is every subject the notification consumer listens on.
var Subjects = []string{SubjectBookingCreated, SubjectBookingCancelled}

// BookingEvent is published once per committed booking mutation.  User and
// event fields are captured at commit time so consumers never need to query
// the primary database.  Exactly one of SeatsBooked or SeatsReleased is set,
// depending on Kind.
type BookingEvent struct {
	Kind          string    `json:"kind"`
	BookingID     uint64    `json:"booking_id"`
	UserID        uint64    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
	EventID       uint64    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	SeatsBooked   int       `json:"seats_booked,omitempty"`
	SeatsReleased int       `json:"seats_released,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Seats returns the seat delta regardless of direction.
func (e BookingEvent) Seats() int {
	if e.Kind == SubjectBookingCancelled {
		return e.SeatsReleased
	}
	return e.SeatsBooked
}
