// Package domainerrors defines the error vocabulary shared by services and
// transports. Services attach a Code to every error they surface so handlers
// can translate to HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeBadRequest marks malformed request bodies or parameters.
	CodeBadRequest Code = "bad_request"
	// CodeValidation marks input that parsed but violates domain rules.
	CodeValidation Code = "validation_error"
	// CodeUnauthorized marks a missing or unresolvable caller identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller lacking permission.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a lost race on a uniqueness or ordering constraint.
	CodeConflict Code = "conflict"
	// CodeTimeout marks work abandoned because its context expired.
	CodeTimeout Code = "timeout"
	// CodeUnavailable marks transient infrastructure failure. Callers may
	// retry the whole operation; atomic units leave no partial state behind.
	CodeUnavailable Code = "storage_unavailable"
	// CodeInternal marks unexpected failure; details are never sent to clients.
	CodeInternal Code = "internal_error"
)

// Error carries a Code alongside the message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code attached to err, or CodeInternal when
// err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
