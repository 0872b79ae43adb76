package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// BookingRepo serves booking reads.  Bookings are created and deleted only
// by the reservation engine through InventoryStore.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingFilter narrows List.  Zero values mean "any".
type BookingFilter struct {
	UserID  uint64
	EventID uint64
}

const bookingDetailSelect = `SELECT b.id, b.user_id, b.event_id, b.seats_booked, b.created_at,
       u.name, u.email, e.title, e.event_date
FROM bookings b
JOIN users u ON u.id = b.user_id
JOIN events e ON e.id = b.event_id`

// List returns bookings matching f, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.BookingDetail, error) {
	query := bookingDetailSelect
	var conds []string
	var args []any
	if f.UserID != 0 {
		conds = append(conds, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventID != 0 {
		conds = append(conds, "b.event_id = ?")
		args = append(args, f.EventID)
	}
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY b.created_at DESC, b.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByID returns a booking with its user and event fields or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.BookingDetail, error) {
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailSelect+"\nWHERE b.id = ?", id))
	if err != nil {
		return model.BookingDetail{}, notFound(err)
	}
	return d, nil
}

func scanBookingDetail(s rowScanner) (model.BookingDetail, error) {
	var d model.BookingDetail
	err := s.Scan(&d.ID, &d.UserID, &d.EventID, &d.SeatsBooked, &d.CreatedAt,
		&d.UserName, &d.UserEmail, &d.EventTitle, &d.EventDate)
	return d, err
}
