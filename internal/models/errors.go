package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrState             = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrValidation        = errors.New("validation failed")

	// ErrStorage marks infrastructure failures (connection loss, aborted
	// transactions). It is never one of the business kinds above.
	ErrStorage = errors.New("storage failure")
)

// Error wraps a kind with a human readable message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Statef(format string, args ...any) error {
	return &Error{Kind: ErrState, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// IsBusiness reports whether err carries one of the business rule kinds.
func IsBusiness(err error) bool {
	for _, kind := range []error{ErrNotFound, ErrState, ErrConflict, ErrForbidden, ErrInsufficientFunds, ErrValidation} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// StorageError is an infrastructure failure raised while running a unit of work.
// Retryable is set when the whole operation can be safely reissued, e.g. after
// a serialization failure or deadlock.
type StorageError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// IsRetryable reports whether err is a storage failure worth retrying.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retryable
}
