package dbcore

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// NewFanoutLogger builds a logger that writes human-readable text to human
// and structured JSON to machine. Either writer may be nil to skip that
// sink, letting the engine log diagnostics to a human console while
// simultaneously feeding a machine-readable stream to an embedding host.
func NewFanoutLogger(human, machine io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handlers []slog.Handler
	if human != nil {
		handlers = append(handlers, slog.NewTextHandler(human, opts))
	}
	if machine != nil {
		handlers = append(handlers, slog.NewJSONHandler(machine, opts))
	}
	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, opts))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}
