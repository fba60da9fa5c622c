package gxstate

import (
	"errors"

	"github.com/coregx/gxstate/internal/resources"
)

// Errors from the font cache. Use errors.Is to test for them.
var (
	ErrUnconfigured        = resources.ErrUnconfigured
	ErrUnavailable         = resources.ErrUnavailable
	ErrResolutionFailure   = resources.ErrResolutionFailure
	ErrMalformedState      = resources.ErrMalformedState
	ErrReferenceUnresolved = resources.ErrReferenceUnresolved
)

var (
	// ErrNoSessionState is returned by Resume and Inspect for a document
	// that was not suspended by a session.
	ErrNoSessionState = errors.New("document has no session state")

	// ErrSessionClosed is returned by a Session after Suspend or Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrInvalidPageSize is returned for pages without a positive size.
	ErrInvalidPageSize = errors.New("page width and height must be positive")

	// ErrInvalidColor is returned for color components outside [0, 1].
	ErrInvalidColor = errors.New("color components must be in range [0.0, 1.0]")
)
