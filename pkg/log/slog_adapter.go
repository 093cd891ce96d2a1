package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}
	if event.Controller != "" {
		attrs = append(attrs, slog.String("controller", event.Controller))
	}

	// Add type-specific attributes
	switch {
	case event.Registration != nil:
		attrs = append(attrs,
			slog.Bool("registered", event.Registration.Registered),
			slog.Uint64("lines", uint64(event.Registration.LineCount)),
		)
		if event.Registration.Node != "" {
			attrs = append(attrs, slog.String("node", event.Registration.Node))
		}
		if len(event.Registration.Capabilities) > 0 {
			attrs = append(attrs, slog.Any("caps", event.Registration.Capabilities))
		}
		if event.Registration.Code != 0 {
			attrs = append(attrs, slog.Int("code", int(event.Registration.Code)))
		}
	case event.Dispatch != nil:
		attrs = append(attrs,
			slog.String("op", event.Dispatch.Op),
			slog.Uint64("line", event.Dispatch.Line),
			slog.Int("result", int(event.Dispatch.Result)),
		)
		if event.Dispatch.Duration != nil {
			attrs = append(attrs, slog.Duration("duration", *event.Dispatch.Duration))
		}
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("outgoing", event.Frame.Outgoing),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.State != nil:
		attrs = append(attrs,
			slog.String("entity", event.State.Entity.String()),
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", int(*event.Error.Code)))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "resetline", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
