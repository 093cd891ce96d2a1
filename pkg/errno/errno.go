// Package errno defines the signed error-code convention shared between
// reset-line drivers, the hosting subsystem, and the control protocol.
//
// Codes travel across untyped boundaries as negative int32 values, the
// way a C-style callback reports failure. Inside Go code the same codes
// are ordinary error values: Errno implements the error interface, so a
// driver can return errno.EBUSY directly or wrap it with fmt.Errorf.
package errno

import (
	"errors"
	"fmt"
)

// Errno is an error-code number. The stored value is positive; the
// on-wire and callback-return form is its negation (see Code).
type Errno int32

// Error codes understood by the subsystem. Values follow the familiar
// errno numbering so that logs and wire traces read naturally.
const (
	EPERM  Errno = 1  // operation not permitted
	ENOENT Errno = 2  // no such entry
	EIO    Errno = 5  // input/output error
	ENOMEM Errno = 12 // out of memory
	EBUSY  Errno = 16 // resource busy
	EEXIST Errno = 17 // already exists
	ENODEV Errno = 19 // no such device
	EINVAL Errno = 22 // invalid argument

	// ENOTSUPP is the fixed "operation not supported" code returned when
	// a controller has no callback for the requested operation. The value
	// is the kernel-internal one, distinct from POSIX EOPNOTSUPP.
	ENOTSUPP Errno = 524
)

var names = map[Errno]string{
	EPERM:    "EPERM",
	ENOENT:   "ENOENT",
	EIO:      "EIO",
	ENOMEM:   "ENOMEM",
	EBUSY:    "EBUSY",
	EEXIST:   "EEXIST",
	ENODEV:   "ENODEV",
	EINVAL:   "EINVAL",
	ENOTSUPP: "ENOTSUPP",
}

var texts = map[Errno]string{
	EPERM:    "operation not permitted",
	ENOENT:   "no such entry",
	EIO:      "input/output error",
	ENOMEM:   "out of memory",
	EBUSY:    "resource busy",
	EEXIST:   "already exists",
	ENODEV:   "no such device",
	EINVAL:   "invalid argument",
	ENOTSUPP: "operation not supported",
}

// String returns the symbolic name, e.g. "EINVAL".
func (e Errno) String() string {
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("errno(%d)", int32(e))
}

// Error implements the error interface.
func (e Errno) Error() string {
	if text, ok := texts[e]; ok {
		return fmt.Sprintf("%s: %s", e.String(), text)
	}
	return e.String()
}

// Code returns the negative form used by callback returns and the wire.
func (e Errno) Code() int32 {
	return -int32(e)
}

// FromCode converts a negative callback return back to an Errno. The
// second result is false for non-negative codes and unknown values.
func FromCode(code int32) (Errno, bool) {
	if code >= 0 {
		return 0, false
	}

	e := Errno(-code)
	_, known := names[e]
	return e, known
}

// CodeOf translates an arbitrary error into the negative code
// convention. A nil error is 0. An Errno anywhere in the chain yields
// its code. Anything else is reported as -EIO.
func CodeOf(err error) int32 {
	if err == nil {
		return 0
	}

	var e Errno
	if errors.As(err, &e) {
		return e.Code()
	}

	return EIO.Code()
}

// IsCode reports whether code is the negative form of e.
func IsCode(code int32, e Errno) bool {
	return code == e.Code()
}
