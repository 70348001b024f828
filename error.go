package opz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error provides rich context about operation execution failures.
// It wraps the underlying error with the path of named components the
// failure passed through, when it occurred, how long the failing operation
// ran, and whether the failure was due to timeout or cancellation.
//
// Containers prepend their own name to Path as the error bubbles up, so a
// failure inside a nested pipeline reads like a stack trace:
//
//	["render", "flush", "write_frame"]
type Error struct {
	Timestamp time.Time
	Err       error
	Path      []Name
	Duration  time.Duration
	Timeout   bool
	Canceled  bool
}

// Error implements the error interface, providing a detailed error message.
func (e *Error) Error() string {
	location := strings.Join(e.Path, " -> ")
	if location == "" {
		location = "operation"
	}

	if e.Timeout {
		return fmt.Sprintf("%s timed out after %v: %v", location, e.Duration, e.Err)
	}
	if e.Canceled {
		return fmt.Sprintf("%s canceled after %v: %v", location, e.Duration, e.Err)
	}
	return fmt.Sprintf("%s failed after %v: %v", location, e.Duration, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error was caused by a timeout.
func (e *Error) IsTimeout() bool {
	return e.Timeout || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsCanceled returns true if the error was caused by cancellation.
func (e *Error) IsCanceled() bool {
	return e.Canceled || errors.Is(e.Err, context.Canceled)
}

// wrapError wraps err for the component identified by name. An existing
// *Error gets name prepended to its path; anything else becomes a new
// *Error rooted at name.
func wrapError(name Name, err error, duration time.Duration) *Error {
	var opErr *Error
	if errors.As(err, &opErr) {
		opErr.Path = append([]Name{name}, opErr.Path...)
		return opErr
	}
	return &Error{
		Timestamp: time.Now(),
		Err:       err,
		Path:      []Name{name},
		Duration:  duration,
		Timeout:   errors.Is(err, context.DeadlineExceeded),
		Canceled:  errors.Is(err, context.Canceled),
	}
}

// recoverToError converts a panic in an operation into a *Error so one
// misbehaving handler cannot take down the whole program. Used by containers
// via defer.
func recoverToError(name Name, errp *error) {
	if r := recover(); r != nil {
		*errp = &Error{
			Timestamp: time.Now(),
			Err:       fmt.Errorf("panic: %v", r),
			Path:      []Name{name},
		}
	}
}
