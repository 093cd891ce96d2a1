package subsys

import (
	"sync"
	"time"

	"github.com/resetline-protocol/resetline-go/pkg/errno"
	"github.com/resetline-protocol/resetline-go/pkg/log"
	"github.com/resetline-protocol/resetline-go/pkg/platform"
)

// Subsystem is a registry of live controllers and the dispatch path for
// their per-line operations. The zero value is not usable; create one
// with New.
type Subsystem struct {
	mu     sync.RWMutex
	blocks map[*ControlBlock]struct{}
	byName map[string]*ControlBlock
	byNode map[string]*ControlBlock
	order  []*ControlBlock
	logger log.Logger
}

// New creates an empty subsystem.
func New() *Subsystem {
	return &Subsystem{
		blocks: make(map[*ControlBlock]struct{}),
		byName: make(map[string]*ControlBlock),
		byNode: make(map[string]*ControlBlock),
		logger: log.NoopLogger{},
	}
}

// SetLogger configures event logging. Pass nil to disable.
func (s *Subsystem) SetLogger(logger log.Logger) {
	s.mu.Lock()
	s.logger = log.OrNoop(logger)
	s.mu.Unlock()
}

// Register enters a controller into the subsystem. Returns 0 on
// success or a negative error code:
//
//	-EINVAL  nil block/device/table, zero line count, or the block's
//	         device reference does not match dev
//	-EBUSY   the control block is already registered
//	-EEXIST  the device name or node path is already claimed
//
// On success the subsystem retains cb until Unregister; the caller must
// not relocate or mutate the block while it is registered.
func (s *Subsystem) Register(cb *ControlBlock, dev *platform.Device) int32 {
	if cb == nil || dev == nil || cb.Ops == nil || cb.LineCount == 0 || cb.Dev != dev {
		return errno.EINVAL.Code()
	}

	s.mu.Lock()
	code := s.registerLocked(cb, dev)
	logger := s.logger
	s.mu.Unlock()

	event := log.Event{
		Timestamp:  time.Now(),
		Category:   log.CategoryRegistration,
		Controller: dev.Name(),
		Registration: &log.RegistrationEvent{
			Registered:   code == 0,
			LineCount:    cb.LineCount,
			Capabilities: opNames(cb.Ops),
			Code:         code,
		},
	}
	if cb.Node != nil {
		event.Registration.Node = cb.Node.Path()
	}
	logger.Log(event)

	return code
}

func (s *Subsystem) registerLocked(cb *ControlBlock, dev *platform.Device) int32 {
	if _, dup := s.blocks[cb]; dup {
		return errno.EBUSY.Code()
	}
	if _, taken := s.byName[dev.Name()]; taken {
		return errno.EEXIST.Code()
	}
	if cb.Node != nil {
		if _, taken := s.byNode[cb.Node.Path()]; taken {
			return errno.EEXIST.Code()
		}
	}

	s.blocks[cb] = struct{}{}
	s.byName[dev.Name()] = cb
	if cb.Node != nil {
		s.byNode[cb.Node.Path()] = cb
	}
	s.order = append(s.order, cb)
	return 0
}

// Unregister removes a controller. Unknown or already-removed blocks
// are ignored. New dispatches fail with -ENODEV once Unregister
// returns; dispatches already in flight may still complete.
func (s *Subsystem) Unregister(cb *ControlBlock) {
	if cb == nil {
		return
	}

	s.mu.Lock()
	_, present := s.blocks[cb]
	if present {
		delete(s.blocks, cb)
		delete(s.byName, cb.Dev.Name())
		if cb.Node != nil {
			delete(s.byNode, cb.Node.Path())
		}
		for i, b := range s.order {
			if b == cb {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	logger := s.logger
	s.mu.Unlock()

	if !present {
		return
	}

	logger.Log(log.Event{
		Timestamp:  time.Now(),
		Category:   log.CategoryRegistration,
		Controller: cb.Dev.Name(),
		Registration: &log.RegistrationEvent{
			Registered: false,
			LineCount:  cb.LineCount,
		},
	})
}

// Invoke dispatches one operation. Results follow the dispatch rules:
// -ENODEV for unregistered blocks, -EINVAL for out-of-range lines,
// -ENOTSUPP for absent table entries, otherwise the callback's result.
func (s *Subsystem) Invoke(cb *ControlBlock, op Op, line uint64) int32 {
	s.mu.RLock()
	_, registered := s.blocks[cb]
	logger := s.logger
	s.mu.RUnlock()

	var result int32
	var duration *time.Duration

	switch {
	case !registered:
		result = errno.ENODEV.Code()
	case line >= uint64(cb.LineCount):
		result = errno.EINVAL.Code()
	default:
		fn := cb.Ops.Get(op)
		if fn == nil {
			result = errno.ENOTSUPP.Code()
			break
		}
		start := time.Now()
		result = fn(cb, line)
		d := time.Since(start)
		duration = &d
	}

	event := log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryDispatch,
		Dispatch: &log.DispatchEvent{
			Op:       op.String(),
			Line:     line,
			Result:   result,
			Duration: duration,
		},
	}
	if cb != nil && cb.Dev != nil {
		event.Controller = cb.Dev.Name()
	}
	logger.Log(event)

	return result
}

// Reset dispatches OpReset on the given line.
func (s *Subsystem) Reset(cb *ControlBlock, line uint64) int32 {
	return s.Invoke(cb, OpReset, line)
}

// Assert dispatches OpAssert on the given line.
func (s *Subsystem) Assert(cb *ControlBlock, line uint64) int32 {
	return s.Invoke(cb, OpAssert, line)
}

// Deassert dispatches OpDeassert on the given line.
func (s *Subsystem) Deassert(cb *ControlBlock, line uint64) int32 {
	return s.Invoke(cb, OpDeassert, line)
}

// Status dispatches OpStatus on the given line.
func (s *Subsystem) Status(cb *ControlBlock, line uint64) int32 {
	return s.Invoke(cb, OpStatus, line)
}

// Lookup finds a registered controller by device name.
func (s *Subsystem) Lookup(name string) (*ControlBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cb, ok := s.byName[name]
	return cb, ok
}

// LookupNode finds a registered controller by topology node path.
func (s *Subsystem) LookupNode(path string) (*ControlBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cb, ok := s.byNode[path]
	return cb, ok
}

// Registered reports whether cb is currently registered.
func (s *Subsystem) Registered(cb *ControlBlock) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blocks[cb]
	return ok
}

// Controllers returns the registered control blocks in registration
// order.
func (s *Subsystem) Controllers() []*ControlBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ControlBlock, len(s.order))
	copy(out, s.order)
	return out
}

// Capabilities returns the operations cb has callbacks for, or nil if
// cb is not registered.
func (s *Subsystem) Capabilities(cb *ControlBlock) []Op {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.blocks[cb]; !ok {
		return nil
	}
	return cb.Ops.Present()
}

func opNames(t *CallbackTable) []string {
	present := t.Present()
	names := make([]string, 0, len(present))
	for _, op := range present {
		names = append(names, op.String())
	}
	return names
}
