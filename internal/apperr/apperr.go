// Package apperr defines the single operational error type used across the
// service layer. An operational error is an anticipated, classifiable failure
// that carries the HTTP status code the boundary should answer with.
package apperr

import (
	"errors"
	"net/http"
)

// Error is an operational error: a failure the caller caused or one the
// server anticipated, with an HTTP status code attached.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Status returns "fail" for client-caused (4xx) errors and "error" otherwise,
// matching the response envelope's status field.
func (e *Error) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// New creates an operational error with an explicit status code.
func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// BadRequest creates a 400 operational error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized creates a 401 operational error.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotFound creates a 404 operational error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Internal creates a 500 operational error.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// From coerces any error into an operational one. Errors that are not already
// classified default to 500/"error" so nothing internal leaks a status of its
// own choosing.
func From(err error) *Error {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr
	}
	return Internal(err.Error())
}
