package resources

import "errors"

var (
	// ErrUnconfigured is returned by GetOrCreate before SetObjectsContext
	// bound a document writer. The caller may retry once it is bound.
	ErrUnconfigured = errors.New("resource repository has no objects context")

	// ErrUnavailable is returned by GetOrCreate when a resource cannot be
	// provided, now or after an earlier failed attempt.
	ErrUnavailable = errors.New("resource unavailable")

	// ErrResolutionFailure means the factory failed or produced an invalid
	// state.
	ErrResolutionFailure = errors.New("resource resolution failed")

	// ErrMalformedState means a checkpointed object does not have the
	// expected shape.
	ErrMalformedState = errors.New("malformed checkpoint state")

	// ErrReferenceUnresolved means a checkpointed reference could not be
	// dereferenced.
	ErrReferenceUnresolved = errors.New("checkpoint reference unresolved")
)
