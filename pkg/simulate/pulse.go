package simulate

import (
	"sync"

	"github.com/resetline-protocol/resetline-go/pkg/reset"
)

// Pulse is a self-deasserting controller: the only operation it
// supports is Reset, which records the pulse and reports 0.
type Pulse struct {
	mu     sync.Mutex
	pulses map[uint64]int32
}

var _ reset.Resetter = (*Pulse)(nil)

// NewPulse creates a pulse controller.
func NewPulse() *Pulse {
	return &Pulse{pulses: make(map[uint64]int32)}
}

// Reset pulses the line.
func (p *Pulse) Reset(line uint64) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pulses[line]++
	return 0, nil
}

// Pulses returns how often the line has been pulsed.
func (p *Pulse) Pulses(line uint64) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pulses[line]
}
