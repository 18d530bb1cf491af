package monitoring

import (
	"io"
	"log/slog"
)

// Event types attached to queue log records under the "event_type" key.
const (
	EventCreate     = "create"
	EventRelabel    = "relabel"
	EventSkip       = "skip"
	EventSpill      = "spill"
	EventCompaction = "compaction"
	EventClose      = "close"
)

// NewLogger returns a JSON logger for component writing records at or above
// level to w.
func NewLogger(component string, w io.Writer, level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", component)
}

// Component tags l with component. A nil l falls back to slog.Default.
func Component(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
