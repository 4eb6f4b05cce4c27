package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a trip or gear id has no matching row.
// Handlers map it to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when submitted fields fail parsing or a required
// field is missing. Handlers re-render the form with HTTP 400.
var ErrValidation = errors.New("validation error")

// ValidationError names the offending form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidationMessage returns the human-readable part of a validation failure,
// or a generic message for any other error.
func ValidationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "Invalid submission"
}
