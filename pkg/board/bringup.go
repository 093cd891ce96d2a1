package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resetline-protocol/resetline-go/pkg/platform"
	"github.com/resetline-protocol/resetline-go/pkg/reset"
	"github.com/resetline-protocol/resetline-go/pkg/subsys"
)

// Bringup holds the live registrations of one brought-up board, in
// bringup order.
type Bringup struct {
	board *Board
	devs  []*platform.Device
	regs  []*reset.Registration[any]
}

// Bring instantiates every device on the board and registers it with
// the subsystem. On any failure the devices brought up so far are torn
// down again; a board comes up completely or not at all.
func Bring(sub *subsys.Subsystem, b *Board) (*Bringup, error) {
	if sub == nil {
		return nil, errors.New("nil subsystem")
	}
	if b == nil {
		return nil, errors.New("nil board")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	bu := &Bringup{board: b}
	for _, spec := range b.Devices {
		if err := bu.bringDevice(sub, spec); err != nil {
			bu.Close()
			return nil, fmt.Errorf("board %q: %w", b.Name, err)
		}
	}
	return bu, nil
}

func (bu *Bringup) bringDevice(sub *subsys.Subsystem, spec DeviceSpec) error {
	factory, ok := factoryFor(spec.Driver)
	if !ok {
		return fmt.Errorf("device %q: unknown driver %q (registered: %s)",
			spec.Name, spec.Driver, strings.Join(Drivers(), ", "))
	}

	state, err := factory(spec)
	if err != nil {
		return fmt.Errorf("device %q: driver %q: %w", spec.Name, spec.Driver, err)
	}

	var node *platform.Node
	if spec.Node != "" {
		if node, err = platform.NewNode(spec.Node); err != nil {
			return fmt.Errorf("device %q: %w", spec.Name, err)
		}
	}
	dev, err := platform.NewDevice(spec.Name, node)
	if err != nil {
		return fmt.Errorf("device %q: %w", spec.Name, err)
	}

	reg, err := reset.Register(sub, dev, spec.Lines, state)
	if err != nil {
		return fmt.Errorf("registering %q: %w", spec.Name, err)
	}

	bu.devs = append(bu.devs, dev)
	bu.regs = append(bu.regs, reg)
	return nil
}

// Close tears the board down in reverse bringup order. All devices are
// torn down even if some fail; the first error is returned.
func (bu *Bringup) Close() error {
	var first error
	for i := len(bu.regs) - 1; i >= 0; i-- {
		if err := bu.regs[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Board returns the description this bringup was built from.
func (bu *Bringup) Board() *Board {
	return bu.board
}

// Devices returns the brought-up devices in bringup order.
func (bu *Bringup) Devices() []*platform.Device {
	return bu.devs
}

// Registrations returns the live registrations in bringup order.
func (bu *Bringup) Registrations() []*reset.Registration[any] {
	return bu.regs
}
