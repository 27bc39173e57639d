package tasks

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a task or database does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidInput is returned when a request is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnauthorized is returned when the remote service rejects the
	// integration token.
	ErrRemoteUnauthorized = errors.New("remote service rejected credentials")

	// ErrRateLimited is returned when the remote service keeps rate limiting
	// requests after retries.
	ErrRateLimited = errors.New("remote service rate limit exceeded")

	// ErrRemoteUnavailable is returned for transport failures, timeouts and
	// server errors from the remote service.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrRemoteRejected is returned when the remote service refuses a request
	// for any other reason.
	ErrRemoteRejected = errors.New("remote service rejected request")
)

// Error wraps a task error with the operation that failed.
type Error struct {
	Op  string // Operation that failed (e.g., "Create", "List")
	Err error  // Underlying error
	Msg string // Additional context
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRemoteFailure reports whether err originates from the remote service
// (anything other than not found).
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrRemoteUnauthorized) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrRemoteUnavailable) ||
		errors.Is(err, ErrRemoteRejected)
}

// PublicMessage describes err in terms that are safe to return to API
// callers. Transport details and remote identifiers are left out.
func PublicMessage(err error) string {
	for _, sentinel := range []error{ErrRemoteUnauthorized, ErrRateLimited, ErrRemoteUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	for _, sentinel := range []error{ErrNotFound, ErrInvalidInput, ErrRemoteRejected} {
		if errors.Is(err, sentinel) {
			var taskErr *Error
			if errors.As(err, &taskErr) && taskErr.Msg != "" {
				return fmt.Sprintf("%s: %s", sentinel, taskErr.Msg)
			}
			return sentinel.Error()
		}
	}

	return "internal error"
}
