package store

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a unique key (combo, username) is taken.
	ErrConflict = errors.New("store: conflict")

	// ErrInvalidReference is returned when a sale points at a missing user or client.
	ErrInvalidReference = errors.New("store: invalid reference")
)
