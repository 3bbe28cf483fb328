package tailoring

import "errors"

// ErrInvalidInput indicates validation or bad input.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError carries a user-facing message and unwraps to ErrInvalidInput.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
