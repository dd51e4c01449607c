package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a text logger on stdout as the default. level is one of
// debug, info, warn, error; debug=true forces debug.
func Init(level string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level, debug),
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(level string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
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
