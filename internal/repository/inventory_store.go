package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// InventoryTx is the set of statements the reservation engine runs inside
// one transaction.  Methods that lock take InnoDB row locks which are held
// until the transaction commits or rolls back.
type InventoryTx interface {
	// LockEvent takes an exclusive lock on the event row and returns it with
	// the seats booked so far.  Returns ErrNotFound for an unknown event.
	LockEvent(ctx context.Context, eventID uint64) (model.EventView, error)
	// GetUser returns ErrNotFound for an unknown user.
	GetUser(ctx context.Context, userID uint64) (model.User, error)
	// InsertBooking sets ID and CreatedAt on b.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// LockBooking locks the booking and its event row.  Returns ErrNotFound
	// for an unknown booking.
	LockBooking(ctx context.Context, bookingID uint64) (model.BookingDetail, error)
	DeleteBooking(ctx context.Context, bookingID uint64) error
	// UpdateEvent writes the mutable fields of e and refreshes UpdatedAt.
	UpdateEvent(ctx context.Context, e *model.Event) error
	DeleteEvent(ctx context.Context, eventID uint64) error
}

// InventoryStore runs inventory mutations in MySQL transactions.
type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore { return &InventoryStore{db: db} }

// InTx runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (s *InventoryStore) InTx(ctx context.Context, fn func(tx InventoryTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlInventoryTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type sqlInventoryTx struct {
	tx *sql.Tx
}

func (t *sqlInventoryTx) LockEvent(ctx context.Context, eventID uint64) (model.EventView, error) {
	const lockQ = `SELECT id, title, description, event_date, total_seats, created_at, updated_at
FROM events WHERE id = ? FOR UPDATE`
	ev, err := scanEvent(t.tx.QueryRowContext(ctx, lockQ, eventID))
	if err != nil {
		return model.EventView{}, fmt.Errorf("lock event %d: %w", eventID, notFound(err))
	}
	// First consistent read of the transaction, taken after the lock is
	// held, so it sees every booking committed by earlier lock holders.
	const sumQ = `SELECT COALESCE(SUM(seats_booked), 0) FROM bookings WHERE event_id = ?`
	var booked int
	if err := t.tx.QueryRowContext(ctx, sumQ, eventID).Scan(&booked); err != nil {
		return model.EventView{}, fmt.Errorf("sum booked seats for event %d: %w", eventID, err)
	}
	return model.EventView{Event: ev, BookedSeats: booked, AvailableSeats: ev.TotalSeats - booked}, nil
}

func (t *sqlInventoryTx) GetUser(ctx context.Context, userID uint64) (model.User, error) {
	u, err := getUser(ctx, t.tx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

func (t *sqlInventoryTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, event_id, seats_booked) VALUES (?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, b.UserID, b.EventID, b.SeatsBooked)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = uint64(id)
	// Query back the DB-assigned timestamp
	if err := t.tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("read back booking %d: %w", b.ID, err)
	}
	return nil
}

func (t *sqlInventoryTx) LockBooking(ctx context.Context, bookingID uint64) (model.BookingDetail, error) {
	d, err := scanBookingDetail(t.tx.QueryRowContext(ctx, bookingDetailSelect+`
WHERE b.id = ?
FOR UPDATE OF b, e`, bookingID))
	if err != nil {
		return model.BookingDetail{}, fmt.Errorf("lock booking %d: %w", bookingID, notFound(err))
	}
	return d, nil
}

func (t *sqlInventoryTx) DeleteBooking(ctx context.Context, bookingID uint64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bookingID)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", bookingID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete booking %d: %w", bookingID, ErrNotFound)
	}
	return nil
}

func (t *sqlInventoryTx) UpdateEvent(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET title = ?, description = ?, event_date = ?, total_seats = ? WHERE id = ?`
	if _, err := t.tx.ExecContext(ctx, q, e.Title, nullString(e.Description), e.EventDate.UTC(), e.TotalSeats, e.ID); err != nil {
		return fmt.Errorf("update event %d: %w", e.ID, err)
	}
	if err := t.tx.QueryRowContext(ctx, `SELECT updated_at FROM events WHERE id = ?`, e.ID).Scan(&e.UpdatedAt); err != nil {
		return fmt.Errorf("read back event %d: %w", e.ID, err)
	}
	return nil
}

func (t *sqlInventoryTx) DeleteEvent(ctx context.Context, eventID uint64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID); err != nil {
		return fmt.Errorf("delete event %d: %w", eventID, err)
	}
	return nil
}
