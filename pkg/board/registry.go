package board

import (
	"sort"
	"sync"
)

// Factory builds a driver's private state from its board device spec.
// The returned value is what dispatches run against; its type decides
// which operations the controller supports.
type Factory func(spec DeviceSpec) (any, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// RegisterDriver makes a driver factory available to bringup under the
// given name. Driver packages call it from init; registering the same
// name twice, an empty name, or a nil factory panics.
func RegisterDriver(name string, factory Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if name == "" {
		panic("board: RegisterDriver with empty driver name")
	}
	if factory == nil {
		panic("board: RegisterDriver with nil factory for driver " + name)
	}
	if _, dup := drivers[name]; dup {
		panic("board: RegisterDriver called twice for driver " + name)
	}
	drivers[name] = factory
}

// Drivers returns the sorted names of the registered driver factories.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func factoryFor(name string) (Factory, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()

	f, ok := drivers[name]
	return f, ok
}
