// Package logging centralizes zerolog construction so every component
// receives a narrow zerolog.Logger field rather than reaching for a
// process-global logger call.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a zerolog.Logger writing human-readable console output
// to w (os.Stderr in production, a test buffer in tests). level is one
// of zerolog's level strings ("debug", "info", "warn", "error"); an
// unrecognized value falls back to info.
func Setup(w io.Writer, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).Level(parsed).With().Timestamp().Logger()
}

// SetupDefault returns the standard os.Stderr logger at info level,
// used by cmd/webgraph's default wiring.
func SetupDefault() zerolog.Logger {
	return Setup(os.Stderr, "info")
}
