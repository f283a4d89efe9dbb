package domain

import "errors"

var (
	// ErrNotFound is returned when a mutation targets an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat is returned when an import source fails structural validation.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrValidation is returned when caller input breaks a record invariant.
	ErrValidation = errors.New("validation failed")
)
