// Package service implements the reservation rules on top of the
// repositories: seat booking, cancellation, flight scheduling, catalog
// queries, customer accounts, fleet administration and reporting.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a business failure.
type Kind int

const (
	// KindNotFound means the flight, order, route or account does not exist
	// or is not visible to the caller.
	KindNotFound Kind = iota + 1
	// KindValidation means the request was rejected before any state changed.
	KindValidation
	// KindConflict means a concurrent change won a race for a seat, an order
	// id or a resource.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a business failure with a message fit for the end user.  Any
// other error returned by a service is an infrastructure failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a validation error for callers outside the package, such as
// request decoding in the HTTP layer.
func Invalid(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// KindOf returns the kind of a business error and zero for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ErrInvalidCredentials is returned by the login operations for an unknown
// account or a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")
