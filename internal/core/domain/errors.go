package domain

import (
	"errors"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Infrastructure Errors.

	// ErrStore indicates the record store failed (connectivity, constraint violation).
	ErrStore = errors.New("record store failure")

	// ErrBrokerUnavailable indicates the broker connection or topology
	// declaration could not be established.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrPublishFailed indicates the broker rejected or failed a publish.
	// The triggering mutation has already been committed when this is returned.
	ErrPublishFailed = errors.New("event publish failed")
)

// Violation is a single field-level validation failure.
type Violation struct {
	// Field is the name of the offending field as the client sent it.
	Field string `json:"field"`

	// Message describes what is wrong with the value.
	Message string `json:"message"`
}

// ValidationError reports every violation found in one request.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Violations []Violation
}

// Error returns the violations joined into a single line.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Add appends a violation.
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// OrNil returns nil when no violations were recorded, so callers can
// return the result directly as an error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError with a single violation.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{Field: field, Message: message}}}
}

// IsClientError reports whether err stems from the caller's input or a
// missing entity rather than from the store or broker.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
