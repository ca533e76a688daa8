package logger

import (
	"log/slog"
	"os"
)

// New creates the process-wide slog.Logger: JSON on stdout, info level,
// tagged with the service name so aggregated streams stay attributable.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With(slog.String("service", "marketplace"))
}
