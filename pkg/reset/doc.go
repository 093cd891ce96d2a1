// Package reset bridges typed reset-line drivers to the untyped
// callback-table protocol of the hosting subsystem.
//
// A driver supplies private state whose type implements some subset of
// the capability interfaces (Resetter, Asserter, Deasserter,
// StatusReporter). Registration builds a callback table with entries
// only for the implemented operations, transfers ownership of the
// state into an opaque token, installs the token in the device's data
// slot, and hands the control block to the subsystem. Dispatches
// arriving from the subsystem borrow the state back through the token
// and call the typed method; results and errors travel back as signed
// codes, and a panicking driver is contained at the trampoline.
//
// A Registration must be torn down with Close, which unregisters the
// controller before reclaiming the state token, so no dispatch can
// start against reclaimed state.
package reset
