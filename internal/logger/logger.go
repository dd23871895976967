// Package logger builds the zerolog logger used across bankwatch and carries
// it through contexts.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// Structured field names shared by the engine and the CLI.
const (
	FieldRunID       = "run_id"
	FieldCycle       = "cycle"
	FieldAccount     = "account"
	FieldIdentity    = "identity"
	FieldFailureKind = "failure_kind"
	FieldReceipt     = "receipt"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	// Format is FormatConsole (default) or FormatJSON.
	Format string

	// Verbose enables debug level.
	Verbose bool

	// Out defaults to os.Stderr so stdout stays free for command output.
	Out io.Writer
}

// New creates a structured logger.
func New(opts Options) (zerolog.Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var log zerolog.Logger
	switch opts.Format {
	case "", FormatConsole:
		log = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	case FormatJSON:
		log = zerolog.New(out)
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (want %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	return log.Level(level).With().Timestamp().Logger(), nil
}

// NewWithWriter creates a JSON logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a disabled logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
