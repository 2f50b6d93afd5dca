package geodata

import "errors"

var (
	// ErrNotFound is returned when a referenced token, layer, view, or
	// feature does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrNotPermitted is returned when the resolver denies the requested
	// capability
	ErrNotPermitted = errors.New("not permitted")

	// ErrDuplicateContent is returned when a feature create or update
	// collides with an existing content hash
	ErrDuplicateContent = errors.New("duplicate feature content")

	// ErrValidation is returned for malformed geometry or properties
	ErrValidation = errors.New("validation failed")

	// ErrIntegrity is returned when an atomic multi-write operation could
	// not complete as a unit; the storage layer has rolled it back fully
	ErrIntegrity = errors.New("integrity failure")
)
