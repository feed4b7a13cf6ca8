// Package logging defines the structured-logging interface used across the
// sync engine. Implementations wrap slog; components never write to stdout
// directly.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "upload settled", "unit", id, "key", remoteKey)
type Logger interface {
	// Debug logs diagnostics that are useful only while tracing a flow,
	// such as stale results being dropped.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
