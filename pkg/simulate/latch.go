package simulate

import (
	"sync"

	"github.com/resetline-protocol/resetline-go/pkg/reset"
)

// Latch is a level-controlled controller: it supports Assert, Deassert
// and Status but cannot pulse. Status reports 1 while the line is
// asserted and 0 otherwise.
type Latch struct {
	mu       sync.Mutex
	asserted map[uint64]bool
}

var (
	_ reset.Asserter       = (*Latch)(nil)
	_ reset.Deasserter     = (*Latch)(nil)
	_ reset.StatusReporter = (*Latch)(nil)
)

// NewLatch creates a latch controller with all lines released.
func NewLatch() *Latch {
	return &Latch{asserted: make(map[uint64]bool)}
}

// Assert drives the line to its asserted level.
func (l *Latch) Assert(line uint64) (int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.asserted[line] = true
	return 0, nil
}

// Deassert releases the line.
func (l *Latch) Deassert(line uint64) (int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.asserted[line] = false
	return 0, nil
}

// Status reports 1 while the line is asserted.
func (l *Latch) Status(line uint64) (int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.asserted[line] {
		return 1, nil
	}
	return 0, nil
}
