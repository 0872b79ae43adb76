package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

const userColumns = "id, name, email, created_at, updated_at"

// UserRepo provides access to the users table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user and returns the stored row.  The email is
// normalized before insertion; a second user with the same email yields
// ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, name, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email) VALUES (?, ?)",
		strings.TrimSpace(name), email)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return getUser(ctx, r.db, uint64(id))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return getUser(ctx, r.db, id)
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserPatch lists the user fields to change; nil keeps the stored value.
type UserPatch struct {
	Name  *string
	Email *string
}

// Update applies p and returns the stored row.  A taken email yields
// ErrDuplicate and an unknown id ErrNotFound.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) (model.User, error) {
	var sets []string
	var args []any
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*p.Name))
	}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isDuplicateKey(err) {
				return model.User{}, fmt.Errorf("update user %d: %w", id, ErrDuplicate)
			}
			return model.User{}, fmt.Errorf("update user %d: %w", id, err)
		}
	}
	// RowsAffected is 0 for an unchanged row too, so existence is decided
	// by the re-read.
	return getUser(ctx, r.db, id)
}

// Delete removes a user.  Users with bookings yield ErrReferenced.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete user %d: %w", id, ErrReferenced)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getUser(ctx context.Context, q queryer, id uint64) (model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
