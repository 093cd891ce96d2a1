package reset

import (
	"errors"
	"fmt"

	"github.com/resetline-protocol/resetline-go/pkg/errno"
)

var (
	ErrAlreadyRegistered = errors.New("controller already registered")
	ErrClosed            = errors.New("registration closed")
	ErrNoSubsystem       = errors.New("registration has no subsystem")
	ErrNilDevice         = errors.New("nil device")
	ErrNilData           = errors.New("nil driver state")
)

// ExternalError reports a registration rejected by the hosting
// subsystem, carrying the code the subsystem returned.
type ExternalError struct {
	Code errno.Errno
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("registration rejected: %v", e.Code)
}

// Unwrap exposes the code so errors.Is(err, errno.EEXIST) works.
func (e *ExternalError) Unwrap() error {
	return e.Code
}

func externalError(code int32) *ExternalError {
	e, _ := errno.FromCode(code)
	return &ExternalError{Code: e}
}
