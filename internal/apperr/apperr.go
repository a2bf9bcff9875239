// Package apperr defines the error taxonomy shared by every layer of
// sheetdesk. Callers classify errors with errors.Is against the sentinels;
// the command surface flattens them to a single human-readable string.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent entities and rows malformed beyond the
	// minimum column count.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers rejected caller input.
	ErrValidation = errors.New("validation error")
	// ErrPermissionDenied is reserved; no current code path returns it.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrExternal covers backing-store transport, auth and API failures,
	// including caller-imposed timeouts on the transport round-trip.
	ErrExternal = errors.New("external error")
	// ErrInternal covers invariant violations.
	ErrInternal = errors.New("internal error")
)

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func External(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExternal, fmt.Sprintf(format, args...))
}

func Internal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// Wrap attaches a taxonomy sentinel to an underlying cause so that both
// errors.Is(err, sentinel) and the cause's text survive.
func Wrap(sentinel error, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// Message flattens an error for the command boundary. The GUI shell receives
// this string and nothing else.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
