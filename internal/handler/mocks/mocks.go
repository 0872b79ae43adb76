// Package mocks provides testify mocks of the services the HTTP handlers
// depend on.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// ReservationService mocks handler.ReservationService.
type ReservationService struct{ mock.Mock }

func (m *ReservationService) CreateBooking(ctx context.Context, eventID, userID uint64, seats int) (model.BookingDetail, error) {
	args := m.Called(ctx, eventID, userID, seats)
	return args.Get(0).(model.BookingDetail), args.Error(1)
}

func (m *ReservationService) CancelBooking(ctx context.Context, bookingID uint64) error {
	return m.Called(ctx, bookingID).Error(0)
}

// BookingQueryService mocks handler.BookingQueryService.
type BookingQueryService struct{ mock.Mock }

func (m *BookingQueryService) ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.BookingDetail), args.Error(1)
}

func (m *BookingQueryService) GetBooking(ctx context.Context, id uint64) (model.BookingDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BookingDetail), args.Error(1)
}

// EventService mocks handler.EventService.
type EventService struct{ mock.Mock }

func (m *EventService) ListEvents(ctx context.Context) ([]model.EventView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.EventView), args.Error(1)
}

func (m *EventService) GetEvent(ctx context.Context, id uint64) (model.EventView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) Availability(ctx context.Context, id uint64) (model.Availability, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Availability), args.Error(1)
}

func (m *EventService) CreateEvent(ctx context.Context, in service.EventInput) (model.Event, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventService) UpdateEvent(ctx context.Context, id uint64, p service.EventPatch) (model.EventView, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) DeleteEvent(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// UserService mocks handler.UserService.
type UserService struct{ mock.Mock }

func (m *UserService) CreateUser(ctx context.Context, name, email string) (model.User, error) {
	args := m.Called(ctx, name, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserService) GetUser(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *UserService) UpdateUser(ctx context.Context, id uint64, p repository.UserPatch) (model.User, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserService) DeleteUser(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// NotificationService mocks handler.NotificationService.
type NotificationService struct{ mock.Mock }

func (m *NotificationService) Create(ctx context.Context, in service.NotificationInput) (model.Notification, bool, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Notification), args.Bool(1), args.Error(2)
}

func (m *NotificationService) List(ctx context.Context, f repository.NotificationFilter) ([]model.Notification, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *NotificationService) ListForUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *NotificationService) Get(ctx context.Context, id uint64) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *NotificationService) MarkRead(ctx context.Context, id uint64) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationService) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}
