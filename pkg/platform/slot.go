package platform

import (
	"sync/atomic"

	"github.com/resetline-protocol/resetline-go/pkg/foreign"
)

// slot is the per-device driver data slot. Reads and writes are atomic:
// the dispatch path may read the slot concurrently with registration
// installing or clearing it.
type slot struct {
	tok atomic.Uintptr
}

func (s *slot) set(tok foreign.Token) {
	s.tok.Store(uintptr(tok))
}

func (s *slot) get() foreign.Token {
	return foreign.Token(s.tok.Load())
}
