package subsys

import (
	"github.com/resetline-protocol/resetline-go/pkg/platform"
)

// Op identifies one of the four per-line operation kinds.
type Op uint8

const (
	// OpReset triggers a self-deasserting reset pulse on a line.
	OpReset Op = 0
	// OpAssert asserts the reset line.
	OpAssert Op = 1
	// OpDeassert deasserts the reset line.
	OpDeassert Op = 2
	// OpStatus reads the line status.
	OpStatus Op = 3
)

// Ops lists all operation kinds in dispatch-table order.
var Ops = []Op{OpReset, OpAssert, OpDeassert, OpStatus}

// String returns the operation name as used on the wire and in logs.
func (o Op) String() string {
	switch o {
	case OpReset:
		return "reset"
	case OpAssert:
		return "assert"
	case OpDeassert:
		return "deassert"
	case OpStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Callback is one dispatch entry. It receives the control block the
// operation targets and the line identifier, and returns a non-negative
// result or a negative error code.
type Callback func(cb *ControlBlock, line uint64) int32

// CallbackTable is the fixed-shape dispatch table for one controller.
// A nil entry means the controller does not support that operation.
// Tables are built once per driver type and shared read-only; they must
// not be mutated after a control block referencing them is registered.
type CallbackTable struct {
	Reset    Callback
	Assert   Callback
	Deassert Callback
	Status   Callback
}

// Get returns the entry for op, or nil if the operation is unsupported
// or unknown.
func (t *CallbackTable) Get(op Op) Callback {
	switch op {
	case OpReset:
		return t.Reset
	case OpAssert:
		return t.Assert
	case OpDeassert:
		return t.Deassert
	case OpStatus:
		return t.Status
	default:
		return nil
	}
}

// Present returns the operation kinds that have entries.
func (t *CallbackTable) Present() []Op {
	var present []Op
	for _, op := range Ops {
		if t.Get(op) != nil {
			present = append(present, op)
		}
	}
	return present
}

// ControlBlock describes one registered controller. The registration
// side owns the storage and fills every field before registering; the
// subsystem addresses the block by pointer from then on.
type ControlBlock struct {
	// Dev is the device this controller is bound to. Its driver data
	// slot carries the token dispatch callbacks resolve driver state
	// through.
	Dev *platform.Device

	// LineCount is the number of reset lines the controller exposes.
	// Valid line identifiers are 0 through LineCount-1.
	LineCount uint32

	// Node is the topology node, taken from the device at registration.
	Node *platform.Node

	// Ops is the dispatch table.
	Ops *CallbackTable
}
