package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates an entity id with no backing row
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the capture device permission was refused
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStorage indicates a read or write failure in the persistent store
	ErrStorage = errors.New("storage error")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSync indicates a failed remote replica round trip
	ErrSync = errors.New("sync failed")

	// ErrInvalidState indicates an operation that is not legal in the
	// capture session's current state
	ErrInvalidState = errors.New("invalid state")
)
