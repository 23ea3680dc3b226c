package blizzard

import "log/slog"

// Logger is the interface for structured logging.
// It is designed to be compatible with *slog.Logger from the standard library.
// Applications can provide their own implementation or use the default slog logger.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}

// sessionLogger decorates a Logger with a fixed "session" field so every
// line a Session's internals emit carries its id, without every call site
// in dispatch.go/session.go having to pass it explicitly.
type sessionLogger struct {
	Logger
	sessionID string
}

// withSession returns a Logger that tags every call with sessionID, so
// hosts can correlate log lines with metrics and wire traffic via a
// Session's id.
func withSession(logger Logger, sessionID string) Logger {
	return &sessionLogger{Logger: logger, sessionID: sessionID}
}

func (l *sessionLogger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.tag(args)...) }
func (l *sessionLogger) Info(msg string, args ...any)  { l.Logger.Info(msg, l.tag(args)...) }
func (l *sessionLogger) Warn(msg string, args ...any)  { l.Logger.Warn(msg, l.tag(args)...) }
func (l *sessionLogger) Error(msg string, args ...any) { l.Logger.Error(msg, l.tag(args)...) }

func (l *sessionLogger) tag(args []any) []any {
	return append([]any{"session", l.sessionID}, args...)
}
