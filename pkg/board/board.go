// Package board loads YAML board descriptions and brings their
// devices up as registered reset controllers.
//
// A board names a set of devices, each with a line count, an optional
// topology node, and the driver that should back it. Driver packages
// register a factory under their driver name in init, so a host only
// has to import the drivers it ships:
//
//	import _ "github.com/resetline-protocol/resetline-go/pkg/simulate"
package board

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/resetline-protocol/resetline-go/pkg/platform"
)

// Board describes a named set of reset-controller devices.
type Board struct {
	Name    string       `yaml:"name"`
	Devices []DeviceSpec `yaml:"devices"`
}

// DeviceSpec describes one controller: identity, capacity and the
// driver that backs it. Params are passed through to the driver
// factory uninterpreted.
type DeviceSpec struct {
	Name   string         `yaml:"name"`
	Node   string         `yaml:"node,omitempty"`
	Lines  uint32         `yaml:"lines"`
	Driver string         `yaml:"driver"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Parse parses and validates a YAML board description.
func Parse(data []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing board: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Load reads and parses a board description file.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board file: %w", err)
	}
	return Parse(data)
}

// Validate checks the description for structural problems: a missing
// board name, devices without name, driver or lines, malformed node
// paths, and duplicate device names or node paths.
func (b *Board) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("board has no name")
	}

	names := make(map[string]bool, len(b.Devices))
	nodes := make(map[string]bool, len(b.Devices))
	for i, d := range b.Devices {
		if d.Name == "" {
			return fmt.Errorf("device %d has no name", i)
		}
		if names[d.Name] {
			return fmt.Errorf("duplicate device name %q", d.Name)
		}
		names[d.Name] = true

		if d.Node != "" {
			if _, err := platform.NewNode(d.Node); err != nil {
				return fmt.Errorf("device %q: %w", d.Name, err)
			}
			if nodes[d.Node] {
				return fmt.Errorf("duplicate node path %q", d.Node)
			}
			nodes[d.Node] = true
		}

		if d.Lines == 0 {
			return fmt.Errorf("device %q has no lines", d.Name)
		}
		if d.Driver == "" {
			return fmt.Errorf("device %q has no driver", d.Name)
		}
	}
	return nil
}

// Device returns the device spec with the given name.
func (b *Board) Device(name string) (DeviceSpec, bool) {
	for _, d := range b.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceSpec{}, false
}
