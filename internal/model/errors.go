package model

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)
