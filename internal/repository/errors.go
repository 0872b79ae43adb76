// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers to distinguish
// between failure scenarios without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as
// a second user with the same email.
var ErrDuplicate = errors.New("duplicate")

// ErrReferenced is returned when a delete is blocked by a foreign key, such
// as removing a user who still holds bookings.
var ErrReferenced = errors.New("referenced by other rows")

const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlRowIsReferenced = 1451 // ER_ROW_IS_REFERENCED_2
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2
)

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlRowIsReferenced
}

func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}

// queryer is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
