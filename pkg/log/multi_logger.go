package log

// MultiLogger fans one event stream out to several sinks. A host
// typically pairs an rlog capture file with console slog output while
// a board is brought up.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger builds a fan-out over the given sinks. Nil entries
// are skipped, so optional sinks can be passed straight through.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{sinks: make([]Logger, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Log hands the event to every sink in the order they were given.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
