package jobs

import "errors"

var (
	// ErrNotFound indicates the job description does not exist for the user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLimitReached indicates the user already stores the maximum number of job descriptions.
	ErrLimitReached = errors.New("job description limit reached")
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
