package logger

import (
	"log/slog"
	"os"
)

// New builds a slog.Logger for the given environment: JSON output at info
// level in production, human-readable text at debug level otherwise.
func New(env string) *slog.Logger {
	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}
