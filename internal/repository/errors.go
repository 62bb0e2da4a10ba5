package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleState is returned when a conditional update matched no row
	// because the entity's state changed since it was read. Callers decide
	// whether this surfaces as a conflict or a precondition failure.
	ErrStaleState = errors.New("entity state changed concurrently")
)
