package reset

// Driver state advertises its capabilities by implementing a subset of
// these single-method interfaces. The callback table built for a state
// type has an entry only for the operations its type implements; the
// subsystem reports every other operation as unsupported without the
// driver being involved.
//
// Methods return a non-negative result on success. A non-nil error is
// translated to a negative code for the subsystem (errno values keep
// their own code, anything else becomes an I/O error). Dispatches may
// arrive concurrently, so state shared between methods must be
// synchronized by the implementation.

// Resetter pulses a reset line.
type Resetter interface {
	Reset(line uint64) (int32, error)
}

// Asserter drives a reset line to its asserted level.
type Asserter interface {
	Assert(line uint64) (int32, error)
}

// Deasserter releases a reset line from its asserted level.
type Deasserter interface {
	Deassert(line uint64) (int32, error)
}

// StatusReporter reads the current state of a reset line.
type StatusReporter interface {
	Status(line uint64) (int32, error)
}
