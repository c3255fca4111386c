// Package logging builds the zerolog loggers used across aicost.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log line encoding.
type Format string

const (
	// FormatConsole writes human-readable lines, used by the CLI.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line, used by aicost serve.
	FormatJSON Format = "json"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means "info".
func New(w io.Writer, level string, format Format) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := w
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel converts a level name to a zerolog.Level.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return lvl, nil
}
