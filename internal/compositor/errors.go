package compositor

import "errors"

var (
	// ErrAlreadyInitialized is returned by CreateWindow while the window
	// system is already initialized in this process.
	ErrAlreadyInitialized = errors.New("window system already initialized")

	// ErrStaleHandle is returned for window or surface ids that were never
	// issued or whose object has been removed.
	ErrStaleHandle = errors.New("stale or unknown handle")

	// ErrInvalidSize is returned for non-positive window or surface sizes.
	ErrInvalidSize = errors.New("size must be positive")

	// ErrSurfaceLimit is returned when the configured surface capacity is
	// exhausted.
	ErrSurfaceLimit = errors.New("surface limit reached")
)
