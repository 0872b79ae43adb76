package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// NotificationRepo persists notifications.  `read` is a reserved word in
// MySQL and is always quoted.
type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = "id, booking_id, user_id, kind, message, `read`, read_at, created_at"

// DefaultNotificationLimit caps per-user listings when no limit is given.
const DefaultNotificationLimit = 50

// NotificationFilter narrows List.  Nil pointers and a zero UserID mean "any".
type NotificationFilter struct {
	UserID uint64
	Read   *bool
	Limit  int
}

// CreateIfAbsent inserts n unless a notification for the same booking and
// kind already exists.  created reports whether a row was written; a
// duplicate is not an error.  An unknown booking or user is ErrNotFound.
func (r *NotificationRepo) CreateIfAbsent(ctx context.Context, n *model.Notification) (created bool, err error) {
	const q = `INSERT INTO notifications (booking_id, user_id, kind, message) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, n.BookingID, n.UserID, n.Kind, n.Message)
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		if isMissingParent(err) {
			return false, fmt.Errorf("booking %d or user %d: %w", n.BookingID, n.UserID, ErrNotFound)
		}
		return false, fmt.Errorf("insert notification for booking %d: %w", n.BookingID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("insert notification for booking %d: %w", n.BookingID, err)
	}
	n.ID = uint64(id)
	return true, nil
}

// List returns notifications matching f, newest first.
func (r *NotificationRepo) List(ctx context.Context, f NotificationFilter) ([]model.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications"
	var conds []string
	var args []any
	if f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Read != nil {
		conds = append(conds, "`read` = ?")
		args = append(args, *f.Read)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetByID returns a notification or ErrNotFound.
func (r *NotificationRepo) GetByID(ctx context.Context, id uint64) (model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id))
	if err != nil {
		return model.Notification{}, notFound(err)
	}
	return n, nil
}

// GetByBookingKind returns the notification written for a booking event,
// or ErrNotFound.
func (r *NotificationRepo) GetByBookingKind(ctx context.Context, bookingID uint64, kind string) (model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE booking_id = ? AND kind = ?", bookingID, kind))
	if err != nil {
		return model.Notification{}, notFound(err)
	}
	return n, nil
}

// MarkRead flags one notification as read and returns it.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64) (model.Notification, error) {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET `read` = TRUE, read_at = COALESCE(read_at, UTC_TIMESTAMP()) WHERE id = ?", id)
	if err != nil {
		return model.Notification{}, fmt.Errorf("mark notification %d read: %w", id, err)
	}
	// RowsAffected is 0 for an already-read row too, so existence is decided
	// by the re-read.
	return r.GetByID(ctx, id)
}

// MarkAllRead flags every unread notification of a user and returns how
// many were updated.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET `read` = TRUE, read_at = UTC_TIMESTAMP() WHERE user_id = ? AND `read` = FALSE", userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications of user %d read: %w", userID, err)
	}
	return res.RowsAffected()
}

// UnreadCount returns the number of unread notifications of a user.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND `read` = FALSE", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications of user %d: %w", userID, err)
	}
	return n, nil
}

// Delete removes a notification; ErrNotFound when nothing was deleted.
func (r *NotificationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(s rowScanner) (model.Notification, error) {
	var n model.Notification
	var readAt sql.NullTime
	err := s.Scan(&n.ID, &n.BookingID, &n.UserID, &n.Kind, &n.Message, &n.Read, &readAt, &n.CreatedAt)
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return n, err
}
