package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// NotificationRepository reads and updates stored notifications.
type NotificationRepository interface {
	CreateIfAbsent(ctx context.Context, n *model.Notification) (created bool, err error)
	GetByBookingKind(ctx context.Context, bookingID uint64, kind string) (model.Notification, error)
	List(ctx context.Context, f repository.NotificationFilter) ([]model.Notification, error)
	GetByID(ctx context.Context, id uint64) (model.Notification, error)
	MarkRead(ctx context.Context, id uint64) (model.Notification, error)
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	UnreadCount(ctx context.Context, userID uint64) (int, error)
	Delete(ctx context.Context, id uint64) error
}

// NotificationService exposes the notifications written by the consumer.
type NotificationService struct {
	repo    NotificationRepository
	timeout time.Duration
	log     *zap.Logger
}

func NewNotificationService(repo NotificationRepository, storeTimeout time.Duration, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, timeout: storeTimeout, log: log.Named("notifications")}
}

// NotificationInput is a manually submitted notification, used to replay
// one the consumer missed.
type NotificationInput struct {
	BookingID uint64
	UserID    uint64
	Kind      string
	Message   string
}

// Create stores a notification under the same (booking, kind) key the
// consumer uses.  created is false when one already exists; the existing
// row is returned unchanged.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (n model.Notification, created bool, err error) {
	in.Message = strings.TrimSpace(in.Message)
	switch {
	case in.BookingID == 0:
		return n, false, &ValidationError{Field: "booking_id", Reason: "is required"}
	case in.UserID == 0:
		return n, false, &ValidationError{Field: "user_id", Reason: "is required"}
	case !slices.Contains(queue.Subjects, in.Kind):
		return n, false, &ValidationError{Field: "kind", Reason: "must be one of " + strings.Join(queue.Subjects, ", ")}
	case in.Message == "":
		return n, false, &ValidationError{Field: "message", Reason: "is required"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n = model.Notification{BookingID: in.BookingID, UserID: in.UserID, Kind: in.Kind, Message: in.Message}
	created, err = s.repo.CreateIfAbsent(ctx, &n)
	if err != nil {
		return model.Notification{}, false, storeErr(s.log, "create notification", "booking", err)
	}
	if !created {
		existing, err := s.repo.GetByBookingKind(ctx, in.BookingID, in.Kind)
		if err != nil {
			return model.Notification{}, false, storeErr(s.log, "get notification", "notification", err)
		}
		return existing, false, nil
	}
	// the stored row carries read and created_at defaults
	stored, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		return model.Notification{}, false, storeErr(s.log, "get notification", "notification", err)
	}
	return stored, true, nil
}

func (s *NotificationService) List(ctx context.Context, f repository.NotificationFilter) ([]model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, classify(s.log, "list notifications", err)
	}
	return out, nil
}

// ListForUser returns the newest notifications of a user, at most limit or
// DefaultNotificationLimit when limit is not positive.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = repository.DefaultNotificationLimit
	}
	return s.List(ctx, repository.NotificationFilter{UserID: userID, Limit: limit})
}

func (s *NotificationService) Get(ctx context.Context, id uint64) (model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Notification{}, storeErr(s.log, "get notification", "notification", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint64) (model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return model.Notification{}, storeErr(s.log, "mark notification read", "notification", err)
	}
	return n, nil
}

// MarkAllRead returns how many notifications changed state.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, classify(s.log, "mark all notifications read", err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, classify(s.log, "count unread notifications", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(s.log, "delete notification", "notification", err)
	}
	return nil
}
