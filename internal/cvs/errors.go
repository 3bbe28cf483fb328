package cvs

import "errors"

var (
	// ErrNotFound indicates the CV does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOptimizationFailed wraps model or storage failures during optimization.
	ErrOptimizationFailed = errors.New("optimization failed")
)

// ValidationError carries a user-facing message and unwraps to ErrInvalidInput.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
