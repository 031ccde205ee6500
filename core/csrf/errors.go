package csrf

import "errors"

var (
	// ErrTokenGeneration is returned when the secure randomness source
	// fails. This is fatal and indicates an environment problem; it is
	// surfaced, never retried.
	ErrTokenGeneration = errors.New("failed to generate csrf token")

	// ErrInvalidExcludePattern is returned at load time for a malformed
	// exclusion pattern.
	ErrInvalidExcludePattern = errors.New("invalid exclusion pattern")
)
