package bisect

import "errors"

var (
	// ErrInvalidRange is returned by InitializeRange when a bound is negative.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotInitialized is returned by every query or narrowing operation
	// invoked before InitializeRange.
	ErrNotInitialized = errors.New("range not initialized")
)
