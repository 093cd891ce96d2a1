package reset

import (
	"reflect"
	"sync"

	"github.com/resetline-protocol/resetline-go/pkg/errno"
	"github.com/resetline-protocol/resetline-go/pkg/foreign"
	"github.com/resetline-protocol/resetline-go/pkg/platform"
	"github.com/resetline-protocol/resetline-go/pkg/subsys"
)

// Registration owns one controller registration against a hosting
// subsystem, bound to the driver state type D. The subsystem keeps the
// address of the embedded control block for as long as the controller
// is registered, so a Registration is created once, kept by pointer,
// and never copied; the contained mutex makes a by-value copy a vet
// error.
//
// Lifecycle: a new Registration is unregistered. Register moves it to
// registered at most once per attempt; a failed attempt leaves it
// unregistered and fully retryable. Close is the terminal state and
// the only correct way to give up a registered controller.
type Registration[D any] struct {
	mu  sync.Mutex
	sub *subsys.Subsystem

	cb    subsys.ControlBlock
	dev   *platform.Device
	token foreign.Token

	registered bool
	closed     bool
}

// NewRegistration creates an unregistered registration bound to sub.
func NewRegistration[D any](sub *subsys.Subsystem) *Registration[D] {
	return &Registration[D]{sub: sub}
}

// Register transfers data to the subsystem boundary and registers the
// controller: dev and lineCount describe the controller, data is the
// driver state dispatches will run against. Implementations of the
// capability interfaces on D must tolerate concurrent calls.
//
// The data token is installed in the device slot before the subsystem
// learns about the control block, because a dispatch may fire during
// registration. If the subsystem rejects the registration the slot is
// emptied and data ownership reclaimed before the error is returned;
// nothing of the failed attempt stays visible and Register may be
// called again.
func (r *Registration[D]) Register(dev *platform.Device, lineCount uint32, data D) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.registered {
		return ErrAlreadyRegistered
	}
	if r.sub == nil {
		return ErrNoSubsystem
	}
	if dev == nil {
		return ErrNilDevice
	}
	if dev.DriverData().Valid() {
		// The slot holds another controller's token. Refusing here
		// keeps that registration intact.
		return externalError(errno.EEXIST.Code())
	}

	opsType := reflect.TypeFor[D]()
	if opsType.Kind() == reflect.Interface {
		// When D is an interface (board factories hand state over as
		// any) capabilities come from the dynamic type instead.
		opsType = reflect.TypeOf(data)
		if opsType == nil {
			return ErrNilData
		}
	}

	r.cb = subsys.ControlBlock{
		Dev:       dev,
		LineCount: lineCount,
		Node:      dev.Node(),
		Ops:       tableFor(opsType),
	}

	token := foreign.NewToken(data)
	dev.SetDriverData(token)

	if code := r.sub.Register(&r.cb, dev); code < 0 {
		dev.ClearDriverData()
		token.Take()
		return externalError(code)
	}

	r.dev = dev
	r.token = token
	r.registered = true
	return nil
}

// Close tears the registration down. The controller is unregistered
// first, so no new dispatch can start, then the device slot is emptied
// and the state token reclaimed. A dispatch already past the
// subsystem's registration check may still complete against the
// borrowed state; one that has not yet borrowed fails with -ENODEV.
//
// Close on a never-registered or already-closed object returns nil.
// After Close, Register returns ErrClosed.
func (r *Registration[D]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if !r.registered {
		return nil
	}
	r.registered = false

	r.sub.Unregister(&r.cb)
	r.dev.ClearDriverData()
	r.token.Take()

	r.dev = nil
	r.token = 0
	return nil
}

// Registered reports whether the controller is currently registered.
func (r *Registration[D]) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

// Device returns the device the controller is registered against, or
// nil when not registered.
func (r *Registration[D]) Device() *platform.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dev
}

// Handle returns the opaque controller handle. The second result is
// false unless currently registered.
func (r *Registration[D]) Handle() (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.registered {
		return Handle{}, false
	}
	return HandleFor(&r.cb), true
}

// Register constructs a Registration and registers it in one call.
func Register[D any](sub *subsys.Subsystem, dev *platform.Device, lineCount uint32, data D) (*Registration[D], error) {
	r := NewRegistration[D](sub)
	if err := r.Register(dev, lineCount, data); err != nil {
		return nil, err
	}
	return r, nil
}
