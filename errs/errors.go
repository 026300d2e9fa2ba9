// Package errs wraps pkg/errors and adds coded errors: every failure that
// leaves the synchronization core carries a Code and a Message, so transport
// layers never see driver or adapter specific error types.
package errs

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() function.
type Code string

const (
	// Validation marks a client error: illegal aggregation request, empty
	// topological order, malformed collection, ...
	Validation Code = "Validation"
	// UnknownCollection means no readonly adapter serves the collection kind.
	UnknownCollection Code = "UnknownCollection"
	// StaleVersion means an op was submitted against an outdated version; the
	// caller should refetch and retry.
	StaleVersion Code = "StaleVersion"
	// InvalidVersion means an op was submitted against a version that does not
	// exist yet.
	InvalidVersion Code = "InvalidVersion"
	// NotImplemented marks a request with no defined semantics for the
	// active dialect or type.
	NotImplemented Code = "NotImplemented"
	// Unauthorized means the caller identity is missing or was refused by
	// an adapter.
	Unauthorized Code = "Unauthorized"
	// NotFound is returned when a document is required to exist.
	NotFound Code = "NotFound"
	// Unavailable marks a closed service.
	Unavailable Code = "Unavailable"
	// Canceled mirrors context cancellation and deadlines.
	Canceled Code = "Canceled"
	// Internal is the code of every normalized infrastructure error.
	Internal Code = "Internal"
)

// Error is the single error shape surfaced to callers.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// New returns a coded error with a stack trace.
func New(code Code, message string) error {
	return errors.WithStack(&Error{Code: code, Message: message})
}

// Errorf returns a coded error with a formatted message.
func Errorf(code Code, format string, args ...interface{}) error {
	return New(code, errors.Errorf(format, args...).Error())
}

// Wrap annotates err with a code and message, keeping err as the cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Code: code, Message: message, cause: err})
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, errors.Errorf(format, args...).Error())
}

// Is reports whether any error in err's chain carries the target code.
func Is(err error, target Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == target
}

// CodeOf returns the code of err, Internal for uncoded errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// Normalize converts any error into *Error. Coded errors are returned as-is,
// context errors become Canceled and everything else becomes Internal with the
// original error kept as the cause.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: Canceled, Message: "operation canceled", cause: err}
	case errors.Is(err, sql.ErrNoRows):
		return &Error{Code: NotFound, Message: "not found", cause: err}
	}
	return &Error{Code: Internal, Message: "internal error", cause: err}
}
