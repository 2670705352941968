// Package logger provides a configured zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a new zerolog.Logger configured for the application.
// Diagnostics go to stderr so command output on stdout stays parseable.
func New(service string) zerolog.Logger {
	return zerolog.New(os.Stderr).With().
		Str("service", service).
		Timestamp().
		Logger().
		Level(zerolog.WarnLevel)
}

// NewVerbose returns a logger that also emits info and debug events.
func NewVerbose(service string) zerolog.Logger {
	return New(service).Level(zerolog.DebugLevel)
}
