package generatedcvs

import "errors"

var (
	// ErrNotFound indicates the document or section does not exist for the user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExportNotAllowed indicates the user's plan does not include exports.
	ErrExportNotAllowed = errors.New("export not allowed")

	// ErrExportFailed wraps renderer failures.
	ErrExportFailed = errors.New("export failed")
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
