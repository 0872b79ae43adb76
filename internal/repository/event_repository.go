package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// EventRepo serves event reads and inserts.  Mutations that must respect
// booked seats (update, delete) go through InventoryStore so they run under
// the event row lock.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Booked seats are derived on every read by summing bookings.
const eventViewSelect = `SELECT e.id, e.title, e.description, e.event_date, e.total_seats, e.created_at, e.updated_at,
       COALESCE(SUM(b.seats_booked), 0) AS booked_seats
FROM events e
LEFT JOIN bookings b ON b.event_id = e.id`

// Create inserts a new event and reads back the stored row.
func (r *EventRepo) Create(ctx context.Context, title, description string, date time.Time, totalSeats int) (model.Event, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, description, event_date, total_seats) VALUES (?, ?, ?, ?)`,
		title, nullString(description), date.UTC(), totalSeats)
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	ev, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT id, title, description, event_date, total_seats, created_at, updated_at FROM events WHERE id = ?`, id))
	if err != nil {
		return model.Event{}, fmt.Errorf("read back event %d: %w", id, err)
	}
	return ev, nil
}

// List returns every event with its derived seat counts, soonest first.
func (r *EventRepo) List(ctx context.Context) ([]model.EventView, error) {
	rows, err := r.db.QueryContext(ctx, eventViewSelect+`
GROUP BY e.id
ORDER BY e.event_date ASC, e.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.EventView, 0)
	for rows.Next() {
		v, err := scanEventView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, v)
	}
	return events, rows.Err()
}

// GetView returns one event with its derived seat counts or ErrNotFound.
func (r *EventRepo) GetView(ctx context.Context, id uint64) (model.EventView, error) {
	v, err := scanEventView(r.db.QueryRowContext(ctx, eventViewSelect+`
WHERE e.id = ?
GROUP BY e.id`, id))
	if err != nil {
		return model.EventView{}, notFound(err)
	}
	return v, nil
}

// Availability returns the seat snapshot of one event or ErrNotFound.
func (r *EventRepo) Availability(ctx context.Context, id uint64) (model.Availability, error) {
	v, err := r.GetView(ctx, id)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{
		EventID:        v.ID,
		TotalSeats:     v.TotalSeats,
		BookedSeats:    v.BookedSeats,
		AvailableSeats: v.AvailableSeats,
	}, nil
}

func scanEvent(s rowScanner) (model.Event, error) {
	var e model.Event
	var desc sql.NullString
	err := s.Scan(&e.ID, &e.Title, &desc, &e.EventDate, &e.TotalSeats, &e.CreatedAt, &e.UpdatedAt)
	e.Description = desc.String
	return e, err
}

func scanEventView(s rowScanner) (model.EventView, error) {
	var v model.EventView
	var desc sql.NullString
	err := s.Scan(&v.ID, &v.Title, &desc, &v.EventDate, &v.TotalSeats, &v.CreatedAt, &v.UpdatedAt, &v.BookedSeats)
	v.Description = desc.String
	v.AvailableSeats = v.TotalSeats - v.BookedSeats
	return v, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
