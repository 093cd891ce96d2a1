package reset

import (
	"reflect"
	"sync"

	"github.com/resetline-protocol/resetline-go/pkg/errno"
	"github.com/resetline-protocol/resetline-go/pkg/subsys"
)

var (
	resetterType       = reflect.TypeFor[Resetter]()
	asserterType       = reflect.TypeFor[Asserter]()
	deasserterType     = reflect.TypeFor[Deasserter]()
	statusReporterType = reflect.TypeFor[StatusReporter]()
)

// tables caches one callback table per concrete state type. Tables are
// immutable once built and shared by every registration of that type.
var tables sync.Map // reflect.Type -> *subsys.CallbackTable

// tableFor builds the callback table for the state type t. An entry is
// present exactly when t implements the operation's interface, so the
// subsystem sees a nil entry, not a stub, for unsupported operations.
func tableFor(t reflect.Type) *subsys.CallbackTable {
	if cached, ok := tables.Load(t); ok {
		return cached.(*subsys.CallbackTable)
	}

	table := &subsys.CallbackTable{}
	if t.Implements(resetterType) {
		table.Reset = trampolineReset
	}
	if t.Implements(asserterType) {
		table.Assert = trampolineAssert
	}
	if t.Implements(deasserterType) {
		table.Deassert = trampolineDeassert
	}
	if t.Implements(statusReporterType) {
		table.Status = trampolineStatus
	}

	actual, _ := tables.LoadOrStore(t, table)
	return actual.(*subsys.CallbackTable)
}

func trampolineReset(cb *subsys.ControlBlock, line uint64) int32 {
	return dispatch(cb, func(state any) (int32, bool) {
		r, ok := state.(Resetter)
		if !ok {
			return 0, false
		}
		return translate(r.Reset(line)), true
	})
}

func trampolineAssert(cb *subsys.ControlBlock, line uint64) int32 {
	return dispatch(cb, func(state any) (int32, bool) {
		a, ok := state.(Asserter)
		if !ok {
			return 0, false
		}
		return translate(a.Assert(line)), true
	})
}

func trampolineDeassert(cb *subsys.ControlBlock, line uint64) int32 {
	return dispatch(cb, func(state any) (int32, bool) {
		d, ok := state.(Deasserter)
		if !ok {
			return 0, false
		}
		return translate(d.Deassert(line)), true
	})
}

func trampolineStatus(cb *subsys.ControlBlock, line uint64) int32 {
	return dispatch(cb, func(state any) (int32, bool) {
		s, ok := state.(StatusReporter)
		if !ok {
			return 0, false
		}
		return translate(s.Status(line)), true
	})
}

// dispatch borrows the driver state behind the control block's device
// slot and runs op against it. An empty slot, a dead token, or slot
// contents of the wrong type mean the device is not bound to a live
// driver of the expected shape: -ENODEV. The borrow never consumes the
// token, so the slot stays valid for further dispatches.
//
// The subsystem calls trampolines through raw function values and
// cannot unwind, so a panicking driver is stopped here and reported as
// an I/O error.
func dispatch(cb *subsys.ControlBlock, op func(state any) (int32, bool)) (code int32) {
	defer func() {
		if recover() != nil {
			code = errno.EIO.Code()
		}
	}()

	tok := cb.Dev.DriverData()
	if !tok.Valid() {
		return errno.ENODEV.Code()
	}
	state, ok := tok.Borrow()
	if !ok {
		return errno.ENODEV.Code()
	}

	result, ok := op(state)
	if !ok {
		return errno.ENODEV.Code()
	}
	return result
}

// translate folds a typed operation result into the signed convention:
// the payload on success, the error's negative code otherwise.
func translate(result int32, err error) int32 {
	if err != nil {
		return errno.CodeOf(err)
	}
	return result
}
