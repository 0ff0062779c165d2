// internal/app/system/apperr/apperr.go
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a request failure. Handlers return *Error values and
// the httpjson layer maps the kind to an HTTP status, so every failed
// request carries exactly one machine-readable reason.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindEventFull       Kind = "event_full"
	KindDuplicate       Kind = "duplicate_registration"
	KindMissingField    Kind = "missing_field"
	KindMalformedPass   Kind = "malformed_pass"
	KindEventMismatch   Kind = "event_mismatch"
	KindAlreadyAttended Kind = "already_attended"
	KindInvalid         Kind = "invalid"
	KindInternal        Kind = "internal"
)

// Error is the application error type. Message is safe to show to the
// caller; Err (optional) is the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two apperr values by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and caller-safe message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err. Foreign errors get
// a generic message so internals never leak into responses.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Status maps an error kind to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindEventFull, KindDuplicate, KindEventMismatch, KindAlreadyAttended:
		return http.StatusConflict
	case KindMissingField, KindMalformedPass, KindInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
