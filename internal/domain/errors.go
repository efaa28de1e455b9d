package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller is not allowed to act on the record.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when a request fails business validation.
	ErrInvalidInput = errors.New("invalid input")
)
