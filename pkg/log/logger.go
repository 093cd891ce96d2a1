package log

// Logger consumes the event stream the bridge emits: controller
// registrations, line dispatches, control frames, and lifecycle state
// changes. The subsystem and the control server log from their own
// goroutines, so implementations must tolerate concurrent calls.
type Logger interface {
	// Log records one event. Slow sinks stall the dispatch path;
	// implementations that do real I/O should buffer.
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use; it is
// what components fall back to when no logger is configured.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop normalizes an optional logger: it returns l unchanged, or a
// NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

var _ Logger = NoopLogger{}
