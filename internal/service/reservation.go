package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/cache"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// InventoryStore runs fn in one database transaction, committing when fn
// returns nil.
type InventoryStore interface {
	InTx(ctx context.Context, fn func(tx repository.InventoryTx) error) error
}

// ReservationEngine creates and cancels bookings.  Capacity is protected
// only by the exclusive lock on the event row, so any number of engine
// instances may run against the same database.
type ReservationEngine struct {
	store   InventoryStore
	effects *PostCommit
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewReservationEngine(store InventoryStore, effects *PostCommit, storeTimeout time.Duration, log *zap.Logger) *ReservationEngine {
	return &ReservationEngine{
		store:   store,
		effects: effects,
		timeout: storeTimeout,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.Named("reservation"),
	}
}

// CreateBooking reserves seats on an event for a user.  The event row is
// locked for the whole transaction, so concurrent requests for one event
// run one after another and each sees the bookings committed before it.
// A request larger than the remaining capacity fails with
// CapacityExceededError and is never split.
func (e *ReservationEngine) CreateBooking(ctx context.Context, eventID, userID uint64, seats int) (model.BookingDetail, error) {
	switch {
	case eventID == 0:
		return model.BookingDetail{}, &ValidationError{Field: "event_id", Reason: "is required"}
	case userID == 0:
		return model.BookingDetail{}, &ValidationError{Field: "user_id", Reason: "is required"}
	case seats <= 0:
		return model.BookingDetail{}, &ValidationError{Field: "seats_booked", Reason: "must be greater than zero"}
	}

	var out model.BookingDetail
	txCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	err := e.store.InTx(txCtx, func(tx repository.InventoryTx) error {
		ev, err := tx.LockEvent(txCtx, eventID)
		if err != nil {
			return notFoundAs(err, "event")
		}
		if ev.HasOccurred(e.now()) {
			return &InvalidStateError{Reason: "event has already occurred"}
		}
		if ev.AvailableSeats < seats {
			return &CapacityExceededError{Requested: seats, Available: max(ev.AvailableSeats, 0)}
		}
		user, err := tx.GetUser(txCtx, userID)
		if err != nil {
			return notFoundAs(err, "user")
		}
		b := model.Booking{UserID: userID, EventID: eventID, SeatsBooked: seats}
		if err := tx.InsertBooking(txCtx, &b); err != nil {
			return err
		}
		out = model.BookingDetail{
			Booking:    b,
			UserName:   user.Name,
			UserEmail:  user.Email,
			EventTitle: ev.Title,
			EventDate:  ev.EventDate,
		}
		return nil
	})
	if err != nil {
		return model.BookingDetail{}, classify(e.log, "create booking", err)
	}

	e.log.Info("booking created",
		zap.Uint64("booking_id", out.ID),
		zap.Uint64("event_id", eventID),
		zap.Uint64("user_id", userID),
		zap.Int("seats", seats))
	e.effects.Run(ctx, cache.EventPatterns(eventID), &queue.BookingEvent{
		Kind:        queue.SubjectBookingCreated,
		BookingID:   out.ID,
		UserID:      out.UserID,
		UserName:    out.UserName,
		UserEmail:   out.UserEmail,
		EventID:     out.EventID,
		EventTitle:  out.EventTitle,
		SeatsBooked: out.SeatsBooked,
		OccurredAt:  out.CreatedAt,
	})
	return out, nil
}

// CancelBooking deletes a booking and releases its seats.  Bookings can
// only be cancelled while their event is still in the future.
func (e *ReservationEngine) CancelBooking(ctx context.Context, bookingID uint64) error {
	if bookingID == 0 {
		return &ValidationError{Field: "id", Reason: "is required"}
	}

	var cancelled model.BookingDetail
	txCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	err := e.store.InTx(txCtx, func(tx repository.InventoryTx) error {
		d, err := tx.LockBooking(txCtx, bookingID)
		if err != nil {
			return notFoundAs(err, "booking")
		}
		if !d.EventDate.After(e.now()) {
			return &InvalidStateError{Reason: "event has already occurred"}
		}
		if err := tx.DeleteBooking(txCtx, bookingID); err != nil {
			return notFoundAs(err, "booking")
		}
		cancelled = d
		return nil
	})
	if err != nil {
		return classify(e.log, "cancel booking", err)
	}

	e.log.Info("booking cancelled",
		zap.Uint64("booking_id", bookingID),
		zap.Uint64("event_id", cancelled.EventID),
		zap.Int("seats", cancelled.SeatsBooked))
	e.effects.Run(ctx, cache.EventPatterns(cancelled.EventID), &queue.BookingEvent{
		Kind:          queue.SubjectBookingCancelled,
		BookingID:     cancelled.ID,
		UserID:        cancelled.UserID,
		UserName:      cancelled.UserName,
		UserEmail:     cancelled.UserEmail,
		EventID:       cancelled.EventID,
		EventTitle:    cancelled.EventTitle,
		SeatsReleased: cancelled.SeatsBooked,
		OccurredAt:    e.now(),
	})
	return nil
}

// notFoundAs converts repository.ErrNotFound into NotFoundError{entity}
// and leaves other errors for classify.
func notFoundAs(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity}
	}
	return err
}
