// Package simulate provides in-memory reference drivers: a counting
// controller implementing every operation, a pulse-only controller and
// an assert/deassert latch. Each registers a board driver factory
// ("counter", "pulse", "latch"), so importing this package is enough
// to bring up simulated boards.
package simulate

import (
	"sync"

	"github.com/resetline-protocol/resetline-go/pkg/reset"
)

// Counter is a controller whose lines count their resets. Reset
// increments the line's counter and returns the new value, Status
// returns it unchanged, Assert and Deassert latch a per-line flag.
type Counter struct {
	mu       sync.Mutex
	start    int32
	counts   map[uint64]int32
	asserted map[uint64]bool
}

var (
	_ reset.Resetter       = (*Counter)(nil)
	_ reset.Asserter       = (*Counter)(nil)
	_ reset.Deasserter     = (*Counter)(nil)
	_ reset.StatusReporter = (*Counter)(nil)
)

// NewCounter creates a counter whose lines start at the given value.
func NewCounter(start int32) *Counter {
	return &Counter{
		start:    start,
		counts:   make(map[uint64]int32),
		asserted: make(map[uint64]bool),
	}
}

func (c *Counter) value(line uint64) int32 {
	if v, ok := c.counts[line]; ok {
		return v
	}
	return c.start
}

// Reset increments the line's counter and returns the new value.
func (c *Counter) Reset(line uint64) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.value(line) + 1
	c.counts[line] = v
	return v, nil
}

// Assert latches the line as asserted.
func (c *Counter) Assert(line uint64) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.asserted[line] = true
	return 0, nil
}

// Deassert releases the line.
func (c *Counter) Deassert(line uint64) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.asserted[line] = false
	return 0, nil
}

// Status returns the line's counter value unchanged.
func (c *Counter) Status(line uint64) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value(line), nil
}

// Asserted reports the line's latch flag.
func (c *Counter) Asserted(line uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.asserted[line]
}
