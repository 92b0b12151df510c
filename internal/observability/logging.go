package observability

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the application-wide structured JSON logger. Every record
// carries the service name and environment so aggregated logs from multiple
// deployments stay distinguishable.
func NewLogger(w io.Writer, level, service, environment string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", environment),
	)
}

// ParseLevel maps a configuration string to a slog.Level, defaulting to Info
// for unrecognized values.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
