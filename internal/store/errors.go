package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the store. Handlers translate these (and the
// typed errors below) into HTTP statuses; everything else is an internal
// error. Any error surfaced from a multi-statement operation means the whole
// transaction was rolled back.
var (
	// ErrNotFound means a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the caller's role or department does not permit
	// the requested record.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError marks caller input that fails before any write: missing
// fields, empty line sets, non-positive quantities, unmapped request types.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError marks an operation that is well-formed but collides with
// current state: insufficient stock, an unavailable asset, or an item/asset
// mismatch. The message is meant to be shown to the caller verbatim.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
