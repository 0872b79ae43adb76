package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// ReservationService creates and cancels bookings.
type ReservationService interface {
	CreateBooking(ctx context.Context, eventID, userID uint64, seats int) (model.BookingDetail, error)
	CancelBooking(ctx context.Context, bookingID uint64) error
}

// BookingQueryService reads bookings.
type BookingQueryService interface {
	ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error)
	GetBooking(ctx context.Context, id uint64) (model.BookingDetail, error)
}

// BookingHandler serves /v1/bookings and the nested booking listings of
// users and events.
type BookingHandler struct {
	engine  ReservationService
	queries BookingQueryService
}

func NewBookingHandler(engine ReservationService, queries BookingQueryService) *BookingHandler {
	return &BookingHandler{engine: engine, queries: queries}
}

type createBookingRequest struct {
	UserID      uint64 `json:"user_id" validate:"required"`
	EventID     uint64 `json:"event_id" validate:"required"`
	SeatsBooked int    `json:"seats_booked" validate:"gt=0"`
}

// Create handles POST /v1/bookings.  It returns 201 with the booking and
// its user and event fields, or 409 with the available count when the
// event does not have enough seats left.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	b, err := h.engine.CreateBooking(c.Request().Context(), req.EventID, req.UserID, req.SeatsBooked)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.engine.CancelBooking(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/bookings with optional user_id and event_id filters.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := queryID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	eventID, err := queryID(c, "event_id")
	if err != nil {
		return writeError(c, err)
	}
	return h.list(c, repository.BookingFilter{UserID: userID, EventID: eventID})
}

// ListForUser handles GET /v1/users/:id/bookings.
func (h *BookingHandler) ListForUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	return h.list(c, repository.BookingFilter{UserID: id})
}

// ListForEvent handles GET /v1/events/:id/bookings.
func (h *BookingHandler) ListForEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	return h.list(c, repository.BookingFilter{EventID: id})
}

func (h *BookingHandler) list(c echo.Context, f repository.BookingFilter) error {
	out, err := h.queries.ListBookings(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.queries.GetBooking(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
