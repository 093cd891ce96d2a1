// Package subsys hosts registered reset controllers and dispatches
// per-line operations to them.
//
// The subsystem speaks an untyped protocol: a controller is described by
// a ControlBlock whose CallbackTable holds one optional entry per
// operation kind. Registration hands the subsystem the control block's
// address; the subsystem retains that pointer until unregistration, so
// the block must not be relocated while registered. The typed side of
// this boundary lives in package reset, which fills control blocks and
// supplies the trampolines the table points at.
//
// Dispatch rules: operations on unregistered control blocks fail with
// -ENODEV, line identifiers at or beyond the controller's line count
// fail with -EINVAL, and absent table entries fail with -ENOTSUPP
// without touching driver state. In-flight dispatches may complete after
// Unregister returns; new dispatches fail.
package subsys
