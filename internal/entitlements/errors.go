package entitlements

import "errors"

var (
	// ErrNotFound indicates no entitlement row exists for the user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)
