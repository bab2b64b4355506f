package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger as the slog default. Debug records are
// kept only in development.
func Setup(development bool) slog.Handler {
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return handler
}
