// Package errs implements the error taxonomy shared by every core
// component: Store, Scheduler, Session Engine, Ingest Pipeline,
// Assessment Surface and the Service API.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way callers need to react to it.
type Kind string

const (
	// InvalidInput violates a validation rule. Never retried.
	InvalidInput Kind = "invalid_input"
	// NotFound means the item or record does not exist.
	NotFound Kind = "not_found"
	// Conflict is a unique-constraint violation on Item insert.
	Conflict Kind = "conflict"
	// Transient covers pool-exhausted, lock-timeout, network timeout.
	// Retried by the caller up to a bounded attempt count.
	Transient Kind = "transient"
	// RateLimited means an upstream source signaled a rate limit.
	RateLimited Kind = "rate_limited"
	// Corrupt is a schema violation read from the store. Fatal for the
	// current request; operator intervention expected.
	Corrupt Kind = "corrupt"
	// Timeout means the request deadline expired while waiting on I/O.
	Timeout Kind = "timeout"
)

// Error is a typed error carrying a Kind alongside the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around an existing error.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to Corrupt for errors the
// core did not itself raise (an invariant the caller should treat as a
// bug, not a recoverable condition).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Corrupt
}

func InvalidInputf(format string, args ...any) *Error {
	return New(InvalidInput, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}
