// Package logging builds the structured loggers used across fieldsim.
// It wraps log/slog with a level taken from configuration or the
// FIELDSIM_LOG_LEVEL environment variable.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// EnvLevel names the environment variable consulted when no level is configured.
const EnvLevel = "FIELDSIM_LOG_LEVEL"

type Options struct {
	// Level is one of debug, info, warn, error. Empty falls back to EnvLevel,
	// then to info.
	Level  string
	JSON   bool
	Output io.Writer
}

// New returns a logger writing to opts.Output, or stderr when nil.
func New(opts Options) (*slog.Logger, error) {
	name := opts.Level
	if name == "" {
		name = os.Getenv(EnvLevel)
	}
	level, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceNonFinite,
	}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, ho)
	} else {
		h = slog.NewTextHandler(out, ho)
	}
	return slog.New(h), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel accepts level names case-insensitively. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
}

// replaceNonFinite renders NaN and Inf floats as strings; refused parameter
// values are often exactly those and JSON has no encoding for them.
func replaceNonFinite(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindFloat64 {
		return a
	}
	f := a.Value.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return slog.String(a.Key, fmt.Sprint(f))
	}
	return a
}

// WrapError adds context to err, preserving it for errors.Is.
func WrapError(err error, context string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		context = fmt.Sprintf(context, args...)
	}
	return fmt.Errorf("%s: %w", context, err)
}
