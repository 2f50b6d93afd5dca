package repository

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert or update violates a unique
	// constraint (token descriptor, feature content hash)
	ErrDuplicate = errors.New("duplicate record")
)
