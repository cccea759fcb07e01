// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for translation at the HTTP boundary.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindAuth                Kind = "auth"
	KindForbidden           Kind = "forbidden"
	KindNotFoundOrForbidden Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUpstream            Kind = "upstream_unavailable"
	KindRateLimited         Kind = "rate_limited"
	KindInternal            Kind = "internal"
)

// Error is an error with a Kind and a message safe to show to clients.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// E builds an error of the given kind.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(message string) *Error {
	return E(KindValidation, message)
}

// Sentinels usable with errors.Is.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrAuth                = &Error{Kind: KindAuth}
	ErrNotFoundOrForbidden = &Error{Kind: KindNotFoundOrForbidden}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrUpstream            = &Error{Kind: KindUpstream}

	// ErrInvalidStatus is returned for booking status values outside the enum.
	ErrInvalidStatus = &Error{Kind: KindValidation, Message: "invalid booking status"}
)

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFoundOrForbidden:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
