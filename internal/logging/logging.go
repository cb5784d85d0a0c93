// Package logging builds the slog logger shared by albumsync packages.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger on stderr. Debug output is enabled when DEBUG is set.
func New() *slog.Logger {
	return NewWithWriter(os.Stderr)
}

func NewWithWriter(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
