package main

import (
	"io"
	"log/slog"
)

// setupLogger installs the default slog logger: readable text at debug level
// in dev and demo, JSON at info level in prod.
func setupLogger(mode string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
