// Package logging provides the *slog.Logger used by gxstate.
//
// Nothing is logged unless a logger is installed with SetLogger. Library
// code obtains a component-scoped logger with For:
//
//	log := logging.For("resources")
//	log.Debug("cache miss", slog.String("locator", path))
package logging

import (
	"log/slog"
	"sync/atomic"
)

// ComponentKey is the attribute key For attaches to every record.
const ComponentKey = "component"

// logger holds the package-level logger instance.
// Defaults to nil, which causes Logger() to return a discard logger.
var logger atomic.Pointer[slog.Logger]

// newDiscardLogger creates a logger that discards all output.
func newDiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SetLogger configures the package-level logger.
// Pass nil to disable logging (will use slog.DiscardHandler).
//
// SetLogger is safe for concurrent use.
//
// Example enabling output to stderr while suspending a session:
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
//
// Example capturing logs in tests:
//
//	handler := logging.NewBufferedLogHandler(nil)
//	logging.SetLogger(slog.New(handler))
//	// ... checkpoint / restore ...
//	fmt.Println(handler.String())
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		logger.Store(newDiscardLogger())
	} else {
		logger.Store(sl)
	}
}

// Logger returns the package-level logger.
// If no logger has been set via SetLogger, returns a discard logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		logger.Store(l)
	}
	return l
}

// For returns the package-level logger tagged with a component name.
//
// The result is not cached: a later SetLogger call is picked up by the
// next For call.
func For(component string) *slog.Logger {
	return Logger().With(slog.String(ComponentKey, component))
}
