package subsys

import (
	"sync"
	"testing"

	"github.com/resetline-protocol/resetline-go/pkg/errno"
	"github.com/resetline-protocol/resetline-go/pkg/log"
	"github.com/resetline-protocol/resetline-go/pkg/platform"
)

func testBlock(t *testing.T, name, nodePath string, lines uint32, ops *CallbackTable) (*ControlBlock, *platform.Device) {
	t.Helper()

	var node *platform.Node
	if nodePath != "" {
		node = platform.MustNode(nodePath)
	}
	dev, err := platform.NewDevice(name, node)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	return &ControlBlock{Dev: dev, LineCount: lines, Node: node, Ops: ops}, dev
}

func fullTable(result int32) *CallbackTable {
	fn := func(cb *ControlBlock, line uint64) int32 { return result }
	return &CallbackTable{Reset: fn, Assert: fn, Deassert: fn, Status: fn}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpReset, "reset"},
		{OpAssert, "assert"},
		{OpDeassert, "deassert"},
		{OpStatus, "status"},
		{Op(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestCallbackTablePresent(t *testing.T) {
	fn := func(cb *ControlBlock, line uint64) int32 { return 0 }

	table := &CallbackTable{Reset: fn, Status: fn}
	present := table.Present()
	if len(present) != 2 || present[0] != OpReset || present[1] != OpStatus {
		t.Errorf("Present() = %v", present)
	}

	if table.Get(OpAssert) != nil {
		t.Error("Get(OpAssert) returned entry for absent op")
	}
	if table.Get(Op(99)) != nil {
		t.Error("Get(unknown) returned entry")
	}
}

func TestRegisterValidation(t *testing.T) {
	s := New()
	cb, dev := testBlock(t, "ctl", "/soc/reset@0", 4, fullTable(0))

	tests := []struct {
		name string
		call func() int32
	}{
		{"nil block", func() int32 { return s.Register(nil, dev) }},
		{"nil device", func() int32 { return s.Register(cb, nil) }},
		{"nil ops", func() int32 {
			bad, badDev := testBlock(t, "bad-ops", "", 4, nil)
			return s.Register(bad, badDev)
		}},
		{"zero lines", func() int32 {
			bad, badDev := testBlock(t, "bad-lines", "", 0, fullTable(0))
			return s.Register(bad, badDev)
		}},
		{"device mismatch", func() int32 {
			other, _ := testBlock(t, "other", "", 4, fullTable(0))
			_, otherDev := testBlock(t, "other-dev", "", 4, fullTable(0))
			return s.Register(other, otherDev)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := tt.call(); !errno.IsCode(code, errno.EINVAL) {
				t.Errorf("Register = %d, want %d", code, errno.EINVAL.Code())
			}
		})
	}
}

func TestRegisterAndLookup(t *testing.T) {
	s := New()
	cb, dev := testBlock(t, "soc-reset", "/soc/reset@4000", 8, fullTable(0))

	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("Register = %d", code)
	}

	if !s.Registered(cb) {
		t.Error("Registered(cb) = false")
	}
	if got, ok := s.Lookup("soc-reset"); !ok || got != cb {
		t.Error("Lookup by name failed")
	}
	if got, ok := s.LookupNode("/soc/reset@4000"); !ok || got != cb {
		t.Error("Lookup by node failed")
	}
	if ctls := s.Controllers(); len(ctls) != 1 || ctls[0] != cb {
		t.Errorf("Controllers() = %v", ctls)
	}
}

func TestRegisterDuplicateBlock(t *testing.T) {
	s := New()
	cb, dev := testBlock(t, "dup-block", "", 4, fullTable(0))

	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("first Register = %d", code)
	}
	if code := s.Register(cb, dev); !errno.IsCode(code, errno.EBUSY) {
		t.Errorf("second Register = %d, want %d", code, errno.EBUSY.Code())
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	s := New()
	first, firstDev := testBlock(t, "shared-name", "", 4, fullTable(0))
	second, secondDev := testBlock(t, "shared-name", "", 4, fullTable(0))

	if code := s.Register(first, firstDev); code != 0 {
		t.Fatalf("first Register = %d", code)
	}
	if code := s.Register(second, secondDev); !errno.IsCode(code, errno.EEXIST) {
		t.Errorf("second Register = %d, want %d", code, errno.EEXIST.Code())
	}
}

func TestRegisterDuplicateNode(t *testing.T) {
	s := New()
	first, firstDev := testBlock(t, "node-a", "/soc/reset@1", 4, fullTable(0))
	second, secondDev := testBlock(t, "node-b", "/soc/reset@1", 4, fullTable(0))

	if code := s.Register(first, firstDev); code != 0 {
		t.Fatalf("first Register = %d", code)
	}
	if code := s.Register(second, secondDev); !errno.IsCode(code, errno.EEXIST) {
		t.Errorf("second Register = %d, want %d", code, errno.EEXIST.Code())
	}
}

func TestUnregister(t *testing.T) {
	s := New()
	cb, dev := testBlock(t, "gone-soon", "/soc/reset@2", 4, fullTable(0))

	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("Register = %d", code)
	}
	s.Unregister(cb)

	if s.Registered(cb) {
		t.Error("still registered after Unregister")
	}
	if _, ok := s.Lookup("gone-soon"); ok {
		t.Error("Lookup succeeded after Unregister")
	}
	if _, ok := s.LookupNode("/soc/reset@2"); ok {
		t.Error("LookupNode succeeded after Unregister")
	}

	// Idempotent, and nil-safe
	s.Unregister(cb)
	s.Unregister(nil)
}

func TestUnregisterFreesNameAndNode(t *testing.T) {
	s := New()
	first, firstDev := testBlock(t, "reusable", "/soc/reset@3", 4, fullTable(0))

	if code := s.Register(first, firstDev); code != 0 {
		t.Fatalf("Register = %d", code)
	}
	s.Unregister(first)

	second, secondDev := testBlock(t, "reusable", "/soc/reset@3", 4, fullTable(0))
	if code := s.Register(second, secondDev); code != 0 {
		t.Errorf("Register after Unregister = %d", code)
	}
}

func TestInvokeDispatchRules(t *testing.T) {
	s := New()

	var calls int
	table := &CallbackTable{
		Reset: func(cb *ControlBlock, line uint64) int32 {
			calls++
			return int32(line) + 100
		},
	}
	cb, dev := testBlock(t, "rules", "", 4, table)

	// Not yet registered
	if code := s.Invoke(cb, OpReset, 0); !errno.IsCode(code, errno.ENODEV) {
		t.Errorf("Invoke unregistered = %d, want %d", code, errno.ENODEV.Code())
	}

	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("Register = %d", code)
	}

	// Out of range
	if code := s.Invoke(cb, OpReset, 4); !errno.IsCode(code, errno.EINVAL) {
		t.Errorf("Invoke out-of-range = %d, want %d", code, errno.EINVAL.Code())
	}

	// Absent entry: callback not consulted
	if code := s.Invoke(cb, OpStatus, 0); !errno.IsCode(code, errno.ENOTSUPP) {
		t.Errorf("Invoke unsupported = %d, want %d", code, errno.ENOTSUPP.Code())
	}
	if calls != 0 {
		t.Errorf("callback ran %d times for rejected dispatches", calls)
	}

	// Present entry: result passes through
	if code := s.Invoke(cb, OpReset, 2); code != 102 {
		t.Errorf("Invoke = %d, want 102", code)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}

	// After unregistration
	s.Unregister(cb)
	if code := s.Invoke(cb, OpReset, 0); !errno.IsCode(code, errno.ENODEV) {
		t.Errorf("Invoke after Unregister = %d, want %d", code, errno.ENODEV.Code())
	}
}

func TestNamedDispatchWrappers(t *testing.T) {
	s := New()

	var got []Op
	record := func(op Op) Callback {
		return func(cb *ControlBlock, line uint64) int32 {
			got = append(got, op)
			return 0
		}
	}
	table := &CallbackTable{
		Reset:    record(OpReset),
		Assert:   record(OpAssert),
		Deassert: record(OpDeassert),
		Status:   record(OpStatus),
	}
	cb, dev := testBlock(t, "wrappers", "", 2, table)
	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("Register = %d", code)
	}

	s.Reset(cb, 0)
	s.Assert(cb, 0)
	s.Deassert(cb, 0)
	s.Status(cb, 0)

	want := []Op{OpReset, OpAssert, OpDeassert, OpStatus}
	if len(got) != len(want) {
		t.Fatalf("dispatched %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatch %d = %v, want %v", i, got[i], want[i])
		}
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) byCategory(c log.Category) []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []log.Event
	for _, e := range r.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

func TestSubsystemLogsEvents(t *testing.T) {
	s := New()
	rec := &recordingLogger{}
	s.SetLogger(rec)

	table := &CallbackTable{
		Reset: func(cb *ControlBlock, line uint64) int32 { return 7 },
	}
	cb, dev := testBlock(t, "logged", "/soc/reset@9", 4, table)

	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("Register = %d", code)
	}
	s.Invoke(cb, OpReset, 1)
	s.Unregister(cb)

	regs := rec.byCategory(log.CategoryRegistration)
	if len(regs) != 2 {
		t.Fatalf("got %d registration events, want 2", len(regs))
	}
	if !regs[0].Registration.Registered || regs[0].Registration.Node != "/soc/reset@9" {
		t.Errorf("registration event = %+v", regs[0].Registration)
	}
	if caps := regs[0].Registration.Capabilities; len(caps) != 1 || caps[0] != "reset" {
		t.Errorf("capabilities = %v", caps)
	}
	if regs[1].Registration.Registered {
		t.Error("unregistration event marked registered")
	}

	disps := rec.byCategory(log.CategoryDispatch)
	if len(disps) != 1 {
		t.Fatalf("got %d dispatch events, want 1", len(disps))
	}
	d := disps[0].Dispatch
	if d.Op != "reset" || d.Line != 1 || d.Result != 7 || d.Duration == nil {
		t.Errorf("dispatch event = %+v", d)
	}
}

func TestConcurrentDispatch(t *testing.T) {
	s := New()

	var mu sync.Mutex
	counts := make(map[uint64]int)
	table := &CallbackTable{
		Status: func(cb *ControlBlock, line uint64) int32 {
			mu.Lock()
			counts[line]++
			n := counts[line]
			mu.Unlock()
			return int32(n)
		},
	}
	cb, dev := testBlock(t, "concurrent", "", 8, table)
	if code := s.Register(cb, dev); code != 0 {
		t.Fatalf("Register = %d", code)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(line uint64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if code := s.Status(cb, line); code <= 0 {
					t.Errorf("Status = %d", code)
					return
				}
			}
		}(uint64(i))
	}
	wg.Wait()

	for line, n := range counts {
		if n != 50 {
			t.Errorf("line %d dispatched %d times, want 50", line, n)
		}
	}
}
