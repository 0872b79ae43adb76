package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

type NotificationService interface {
	Create(ctx context.Context, in service.NotificationInput) (model.Notification, bool, error)
	List(ctx context.Context, f repository.NotificationFilter) ([]model.Notification, error)
	ListForUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error)
	Get(ctx context.Context, id uint64) (model.Notification, error)
	MarkRead(ctx context.Context, id uint64) (model.Notification, error)
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	UnreadCount(ctx context.Context, userID uint64) (int, error)
	Delete(ctx context.Context, id uint64) error
}

// NotificationHandler exposes notifications written by the consumer.
type NotificationHandler struct {
	notifications NotificationService
}

func NewNotificationHandler(notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type createNotificationRequest struct {
	BookingID uint64 `json:"booking_id" validate:"required"`
	UserID    uint64 `json:"user_id" validate:"required"`
	Kind      string `json:"kind" validate:"required"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// Create handles POST /v1/notifications.  It answers 201 for a new row and
// 200 with the stored row when the booking already has a notification of
// that kind.
func (h *NotificationHandler) Create(c echo.Context) error {
	var req createNotificationRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	n, created, err := h.notifications.Create(c.Request().Context(), service.NotificationInput{
		BookingID: req.BookingID,
		UserID:    req.UserID,
		Kind:      req.Kind,
		Message:   req.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	if !created {
		return c.JSON(http.StatusOK, n)
	}
	return c.JSON(http.StatusCreated, n)
}

// List handles GET /v1/notifications?user_id=&read=&limit=.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := queryID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := queryLimit(c)
	if err != nil {
		return writeError(c, err)
	}
	f := repository.NotificationFilter{UserID: userID, Limit: limit}
	if raw := c.QueryParam("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, &service.ValidationError{Field: "read", Reason: "must be true or false"})
		}
		f.Read = &read
	}
	out, err := h.notifications.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListForUser handles GET /v1/users/:id/notifications.  At most 50 are
// returned unless limit says otherwise.
func (h *NotificationHandler) ListForUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := queryLimit(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.notifications.ListForUser(c.Request().Context(), id, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	n, err := h.notifications.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// MarkRead handles PATCH /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	n, err := h.notifications.MarkRead(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// MarkAllRead handles PATCH /v1/users/:id/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	n, err := h.notifications.MarkAllRead(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// UnreadCount handles GET /v1/users/:id/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	n, err := h.notifications.UnreadCount(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "unread_count": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.notifications.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
