package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs the process-wide slog logger.
// level: debug|info|warn|error (default info); format: json|text (default text).
func InitLogger(level, format string) *slog.Logger {
	return InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo is InitLogger with an explicit destination.
func InitLoggerTo(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With("app", "listing-poster")
	slog.SetDefault(logger)
	return logger
}
