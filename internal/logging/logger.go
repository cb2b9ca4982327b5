// Package logging defines the structured-logging interface used across
// credgate and a log/slog backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs, e.g.:
//
//	log.Info(ctx, "login", "outcome", "failure", "remote", addr)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// Nop discards everything. Useful in tests and for optional dependencies.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
