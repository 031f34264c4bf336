package tech

import "errors"

var (
	// ErrNotFound is returned when an item or note does not exist.
	ErrNotFound = errors.New("technology not found")
	// ErrValidation marks every rejected input. Use errors.Is to test for it and
	// errors.As with criterio.FieldErrors to get the offending fields.
	ErrValidation = errors.New("validation failed")
)

// ValidationError wraps field-level validation failures so they match
// ErrValidation while keeping the underlying field errors reachable.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the sentinel and the wrapped field errors.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// invalid wraps err as a validation failure. nil stays nil.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}
