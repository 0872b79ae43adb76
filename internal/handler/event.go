package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// EventService reads events through the cache and writes them under the
// event lock.
type EventService interface {
	ListEvents(ctx context.Context) ([]model.EventView, error)
	GetEvent(ctx context.Context, id uint64) (model.EventView, error)
	Availability(ctx context.Context, id uint64) (model.Availability, error)
	CreateEvent(ctx context.Context, in service.EventInput) (model.Event, error)
	UpdateEvent(ctx context.Context, id uint64, p service.EventPatch) (model.EventView, error)
	DeleteEvent(ctx context.Context, id uint64) error
}

type EventHandler struct {
	events EventService
}

func NewEventHandler(events EventService) *EventHandler { return &EventHandler{events: events} }

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"max=2000"`
	EventDate   time.Time `json:"event_date" validate:"required"`
	TotalSeats  *int      `json:"total_seats" validate:"required,gt=0"`
}

type updateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	EventDate   *time.Time `json:"event_date"`
	TotalSeats  *int       `json:"total_seats" validate:"omitempty,gt=0"`
}

// List handles GET /v1/events.
func (h *EventHandler) List(c echo.Context) error {
	out, err := h.events.ListEvents(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.events.GetEvent(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Availability handles GET /v1/events/:id/availability.
func (h *EventHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	a, err := h.events.Availability(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
	var req createEventRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	ev, err := h.events.CreateEvent(c.Request().Context(), service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate.UTC(),
		TotalSeats:  *req.TotalSeats,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// Update handles PUT /v1/events/:id.  Omitted fields keep their value.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req updateEventRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	v, err := h.events.UpdateEvent(c.Request().Context(), id, service.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		TotalSeats:  req.TotalSeats,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /v1/events/:id.  Events with bookings answer 409.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.events.DeleteEvent(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
