package reset

import "github.com/resetline-protocol/resetline-go/pkg/subsys"

// Handle is an opaque reference to a registered controller's control
// block. It carries pointer identity only and never reads the block;
// the caller is responsible for the pointer staying valid while the
// handle is in use.
type Handle struct {
	cb *subsys.ControlBlock
}

// HandleFor wraps a control block pointer. The pointer must be
// non-nil; this is not checked.
func HandleFor(cb *subsys.ControlBlock) Handle {
	return Handle{cb: cb}
}

// ControlBlock returns the wrapped pointer.
func (h Handle) ControlBlock() *subsys.ControlBlock {
	return h.cb
}
