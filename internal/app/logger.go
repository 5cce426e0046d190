package app

import (
	"io"
	"log/slog"
)

// newLogger builds the App's own logger. Unknown levels fall back to info;
// "json" selects the JSON handler and anything else the text handler. Every
// record carries the command being run.
func newLogger(levelStr, formatStr string, command Command, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler).With("command", string(command))
}
