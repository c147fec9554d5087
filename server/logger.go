package server

import (
	"io"
	"log/slog"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/observability"
)

// NewLogger returns the process logger. Records logged with a request's
// context carry its request and user ids. Development mode logs at debug
// level.
func NewLogger(w io.Writer, profile *profile.Profile) *slog.Logger {
	level := slog.LevelInfo
	if profile.IsDev() {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(observability.NewContextHandler(handler))
}
