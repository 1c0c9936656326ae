package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map each to an HTTP status.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// Error carries a kind plus a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// PublicMessage lets transports outside this package surface the message
// without importing it.
func (e *Error) PublicMessage() string { return e.Message }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func notFound(what string) error {
	return newError(ErrNotFound, "%s not found", what)
}

func forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}
