// Package platform provides device identity for reset controllers: a
// named device, its optional topology node, and the per-device driver
// data slot the dispatch path reads tokens from.
package platform

import (
	"fmt"

	"github.com/resetline-protocol/resetline-go/pkg/foreign"
)

// Device is the identity a controller registers against. The driver
// data slot carries the foreign token for the controller bound to this
// device; it is installed before registration makes it reachable and
// cleared when the registration is torn down or fails.
type Device struct {
	name string
	node *Node

	slot slot
}

// NewDevice creates a device with the given name and optional topology
// node.
func NewDevice(name string, node *Node) (*Device, error) {
	if name == "" {
		return nil, fmt.Errorf("device name is empty")
	}
	return &Device{name: name, node: node}, nil
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Node returns the device's topology node, which may be nil.
func (d *Device) Node() *Node {
	return d.node
}

// SetDriverData installs a token in the device's data slot.
func (d *Device) SetDriverData(tok foreign.Token) {
	d.slot.set(tok)
}

// DriverData returns the token currently installed in the data slot,
// or the zero token if the slot is empty.
func (d *Device) DriverData() foreign.Token {
	return d.slot.get()
}

// ClearDriverData empties the data slot.
func (d *Device) ClearDriverData() {
	d.slot.set(0)
}

// String returns the device name, with the node path appended when one
// is set.
func (d *Device) String() string {
	if d.node != nil {
		return fmt.Sprintf("%s (%s)", d.name, d.node.Path())
	}
	return d.name
}
