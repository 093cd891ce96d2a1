package log

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingLogger captures events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestNoopLoggerDiscards(t *testing.T) {
	var l NoopLogger
	l.Log(Event{Timestamp: time.Now()}) // must not panic
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	multi := NewMultiLogger(a, b)

	multi.Log(Event{Timestamp: time.Now(), Category: CategoryState})
	multi.Log(Event{Timestamp: time.Now(), Category: CategoryError})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("fan-out counts = %d, %d; want 2, 2", a.count(), b.count())
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	multi := NewMultiLogger()
	multi.Log(Event{Timestamp: time.Now()}) // must not panic
}

func TestMultiLoggerSkipsNilSinks(t *testing.T) {
	a := &recordingLogger{}
	multi := NewMultiLogger(nil, a, nil)

	multi.Log(Event{Timestamp: time.Now(), Category: CategoryDispatch})

	if a.count() != 1 {
		t.Errorf("sink received %d events, want 1", a.count())
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Errorf("OrNoop(nil) = %T, want NoopLogger", OrNoop(nil))
	}

	a := &recordingLogger{}
	if got := OrNoop(a); got != Logger(a) {
		t.Errorf("OrNoop(a) = %v, want the logger unchanged", got)
	}
}

func TestSlogAdapterEmitsAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		Timestamp:  time.Now(),
		Category:   CategoryDispatch,
		Controller: "soc-reset",
		Dispatch:   &DispatchEvent{Op: "assert", Line: 5, Result: 0},
	})

	out := buf.String()
	for _, want := range []string{"category=DISPATCH", "controller=soc-reset", "op=assert", "line=5"} {
		if !strings.Contains(out, want) {
			t.Errorf("slog output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	code := int32(-22)
	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategoryError,
		Error:     &ErrorEventData{Message: "bad line", Context: "invoke", Code: &code},
	})

	out := buf.String()
	if !strings.Contains(out, "error_code=-22") {
		t.Errorf("slog output missing error code: %s", out)
	}
}
