// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP boundary.  Every error that reaches a client carries one of the
// Kind sentinels below plus a short, fixed message; anything else is
// reported as an internal error without detail.
package apperr

import (
	"errors"
	"net/http"
)

// Kind sentinels.  Match them with errors.Is.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyRequests = errors.New("too many requests")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrInternal        = errors.New("internal error")
)

// InternalMessage is the only text an unexpected failure exposes.
const InternalMessage = "internal server error"

// Error is a classified failure with a client-safe message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind so that errors.Is(err, ErrUnauthorized) works.
func (e *Error) Unwrap() error { return e.Kind }

func Unauthorized(msg string) error    { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: ErrForbidden, Message: msg} }
func TooManyRequests(msg string) error { return &Error{Kind: ErrTooManyRequests, Message: msg} }
func Conflict(msg string) error        { return &Error{Kind: ErrConflict, Message: msg} }
func BadRequest(msg string) error      { return &Error{Kind: ErrBadRequest, Message: msg} }
func NotFound(msg string) error        { return &Error{Kind: ErrNotFound, Message: msg} }

// Status maps err onto an HTTP status code and the message that may be
// shown to the client.
func Status(err error) (int, string) {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, InternalMessage
	}
	switch ae.Kind {
	case ErrUnauthorized:
		return http.StatusUnauthorized, ae.Message
	case ErrForbidden:
		return http.StatusForbidden, ae.Message
	case ErrTooManyRequests:
		return http.StatusTooManyRequests, ae.Message
	case ErrConflict:
		return http.StatusConflict, ae.Message
	case ErrBadRequest:
		return http.StatusBadRequest, ae.Message
	case ErrNotFound:
		return http.StatusNotFound, ae.Message
	}
	return http.StatusInternalServerError, InternalMessage
}
