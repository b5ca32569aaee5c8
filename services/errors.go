package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all workflow services. Controllers map these to
// HTTP codes in one place; anything else is treated as a storage failure
// and surfaced generically while the cause is logged server-side.

// ValidationError signals bad input. No state change happened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthorizationError signals that the actor may not perform the action:
// out of scope, wrong role, or acting on a closed gate.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

func authorizationErr(reason string) error {
	return &AuthorizationError{Reason: reason}
}

// Sentinel errors for the remaining taxonomy entries.
var (
	// ErrNotAssigned: the actor holds no review slot on the submission.
	ErrNotAssigned = errors.New("reviewer is not assigned to this submission")

	// ErrStaleVersion: the action targets a superseded submission version.
	ErrStaleVersion = errors.New("submission has been superseded by a newer version")

	// ErrDuplicateRequest: an active request of the same type already
	// exists for the submission.
	ErrDuplicateRequest = errors.New("an active request of this type already exists")

	// ErrNotFound: the addressed record does not exist or does not belong
	// to the actor.
	ErrNotFound = errors.New("record not found")
)

// StorageError wraps a database or filesystem failure. The wrapped cause is
// for the server log only, never for the client.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
