// Package service holds the booking core: the reservation engine, the
// post-commit pipeline and the query services in front of MySQL and Redis.
// Every exported operation fails with one of the error types below and
// never returns a raw driver error.
package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// NotFoundError reports a missing user, event, booking or notification.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// CapacityExceededError rejects a booking larger than the seats left.
// Available is the count observed under the event lock.
type CapacityExceededError struct {
	Requested int
	Available int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("not enough seats available: requested %d, available %d", e.Requested, e.Available)
}

// InvalidStateError rejects an operation the current state forbids, such
// as cancelling a booking for an event that already took place.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

// ErrConflict is wrapped by errors reporting a uniqueness or dependency
// conflict, e.g. a duplicate email.
var ErrConflict = errors.New("conflict")

// UnavailableError reports that a dependency failed or timed out.  Error
// never includes the cause; Err is kept for logs.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string { return "service unavailable" }

func (e *UnavailableError) Unwrap() error { return e.Err }

func conflict(msg string) error { return fmt.Errorf("%s: %w", msg, ErrConflict) }

// isDomainError reports whether err already belongs to the taxonomy above.
func isDomainError(err error) bool {
	var (
		nf  *NotFoundError
		ce  *CapacityExceededError
		is  *InvalidStateError
		ve  *ValidationError
		une *UnavailableError
	)
	return errors.As(err, &nf) || errors.As(err, &ce) || errors.As(err, &is) ||
		errors.As(err, &ve) || errors.As(err, &une) || errors.Is(err, ErrConflict)
}

// classify passes domain errors through and turns anything else into an
// UnavailableError after logging the cause.
func classify(log *zap.Logger, op string, err error) error {
	if isDomainError(err) {
		return err
	}
	log.Error(op+" failed", zap.Error(err))
	return &UnavailableError{Op: op, Err: err}
}

// storeErr maps repository.ErrNotFound to NotFoundError{entity} and
// classifies the rest.
func storeErr(log *zap.Logger, op, entity string, err error) error {
	return classify(log, op, notFoundAs(err, entity))
}
