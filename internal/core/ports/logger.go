package ports

import "io"

// Logger is the single logging seam every core/ambient component depends on.
// The scheduler, supervisor, and orchestrator take a Logger, never a
// concrete *slog.Logger, so tests can substitute a mock and production code
// can substitute the slog-backed adapter in internal/adapters/logger.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	// Info logs an informational message.
	Info(msg string)
	// Warn logs a warning message.
	Warn(msg string)
	// Error logs err, unwrapping zerr-style error chains into a readable form.
	Error(err error)
	// SetJSON toggles between human-readable and machine-readable (JSON) output.
	SetJSON(enable bool)
	// SetOutput redirects where log output is written.
	SetOutput(w io.Writer)
}
