package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// BookingReader serves booking reads.
type BookingReader interface {
	List(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error)
	GetByID(ctx context.Context, id uint64) (model.BookingDetail, error)
}

// BookingQueries answers booking reads straight from MySQL; bookings are
// never cached.
type BookingQueries struct {
	repo    BookingReader
	timeout time.Duration
	log     *zap.Logger
}

func NewBookingQueries(repo BookingReader, storeTimeout time.Duration, log *zap.Logger) *BookingQueries {
	return &BookingQueries{repo: repo, timeout: storeTimeout, log: log.Named("bookings")}
}

func (q *BookingQueries) ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	out, err := q.repo.List(ctx, f)
	if err != nil {
		return nil, classify(q.log, "list bookings", err)
	}
	return out, nil
}

func (q *BookingQueries) GetBooking(ctx context.Context, id uint64) (model.BookingDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	d, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return model.BookingDetail{}, storeErr(q.log, "get booking", "booking", err)
	}
	return d, nil
}
