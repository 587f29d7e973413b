package config

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel parses a log level name. Python-style names such as WARNING and
// CRITICAL are accepted. Unknown names fall back to info; Config.Validate
// rejects them before a logger is built.
func ParseLevel(level string) zerolog.Level {
	lvl, ok := lookupLevel(level)
	if !ok {
		return zerolog.InfoLevel
	}
	return lvl
}

// lookupLevel resolves a level name. An empty name means info.
func lookupLevel(level string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(level))
	switch name {
	case "":
		return zerolog.InfoLevel, true
	case "warning":
		name = "warn"
	case "critical":
		name = "fatal"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

// NewLogger builds the root logger. format is "console" for human readable
// output or "json".
func NewLogger(level, format string, w io.Writer) zerolog.Logger {
	out := w
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}
