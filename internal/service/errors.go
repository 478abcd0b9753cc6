package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")

	ErrInvalidField     = fmt.Errorf("%w: invalid field", ErrValidation)
	ErrNoFieldsToUpdate = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrInvalidLimit     = fmt.Errorf("%w: limit must be a positive integer", ErrValidation)
	ErrInvalidCursor    = fmt.Errorf("%w: invalid cursor", ErrValidation)

	ErrNotFound = errors.New("task not found")
)

// FieldError names the request field that failed validation.
type FieldError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}
