package logger

import (
	"io"
	"log/slog"
	"os"
)

// InitJSONLogger configures and sets the default slog logger to use JSON format.
// Debug records are emitted only when debug is true.
func InitJSONLogger(debug bool) {
	slog.SetDefault(slog.New(NewJSONHandler(os.Stdout, debug)))
}

// NewJSONHandler returns the JSON handler used by InitJSONLogger, writing to w.
func NewJSONHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}
