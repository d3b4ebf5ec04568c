package aspen

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

var globalLogger atomic.Pointer[slog.Logger]

// SetLogger sets the package logger used by windows and loaders that were
// not given one explicitly. A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) {
	globalLogger.Store(l)
}

// Logger returns the package logger, falling back to slog.Default.
func Logger() *slog.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// ParseLogLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("aspen: invalid log level: %q", level)
}

// NewTextLogger returns a text logger writing to w at the given level.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
