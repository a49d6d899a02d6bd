package log

import (
	"io"
	"log/slog"
)

// NewTerminalHandler returns a handler that writes level-aligned,
// human-readable lines to w.
func NewTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl, _ := a.Value.Any().(slog.Level)
				a.Value = slog.StringValue(LevelAlignedString(lvl))
			}
			return a
		},
	})
}

// DiscardHandler returns a handler that drops every record; it is the
// default before InitLogger is called.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}
