package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog for structured logging.
type Logger struct {
	logger *slog.Logger
}

// Config configures the logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output io.Writer
}

// New creates a structured logger.
func New(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(config.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// ParseLevel maps a level name onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return New(Config{Output: io.Discard, Level: "error"})
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger *Logger) *Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// With adds additional fields to the logger.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// Component returns the logger scoped to a named component.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}
