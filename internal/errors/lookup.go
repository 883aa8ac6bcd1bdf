// Package errors defines the typed errors shared by the book lookup pipeline.
package errors

import (
	"errors"
	"fmt"
)

// InvalidInputError is returned before any I/O when the OCR text cannot be processed.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// NewInvalidInputError creates an InvalidInputError with the given message
func NewInvalidInputError(message string) *InvalidInputError {
	return &InvalidInputError{Message: message}
}

// IsInvalidInput reports whether err is an InvalidInputError (even when wrapped).
func IsInvalidInput(err error) bool {
	var inputErr *InvalidInputError
	return errors.As(err, &inputErr)
}

// NotFoundError means the catalog answered but had no matching record.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NewNotFoundError creates a NotFoundError with the given message
func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// IsNotFound reports whether err is a NotFoundError (even when wrapped).
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// TransportError wraps network failures, unexpected HTTP statuses and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err with the operation that failed
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is a transport failure. Rate limit errors count as transport failures.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) || IsRateLimitError(err)
}
