package types

import (
	"errors"
	"fmt"
)

// Failure kinds reported by the store, the endpoint client and the API.
// Every error crossing a package boundary wraps exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("entity not found")
	ErrTransport  = errors.New("transport failure")
	ErrConflict   = errors.New("conflicting write")
)

// RequestError describes a failed call against a resource endpoint.
// Status is the HTTP status code, or 0 when no response was received.
type RequestError struct {
	Op       string
	Resource string
	Status   int
	Message  string
	Err      error
}

// Error describes the operation, resource, status and cause.
func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Resource)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the sentinel the failure wraps.
func (e *RequestError) Unwrap() error { return e.Err }

// Validationf returns an error wrapping ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
