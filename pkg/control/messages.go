package control

import (
	"fmt"

	"github.com/resetline-protocol/resetline-go/pkg/subsys"
)

// Op identifies the operation a request asks for.
type Op uint8

const (
	OpList Op = iota
	OpReset
	OpAssert
	OpDeassert
	OpStatus
)

// String returns the lowercase operation name.
func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpReset:
		return "reset"
	case OpAssert:
		return "assert"
	case OpDeassert:
		return "deassert"
	case OpStatus:
		return "status"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Valid reports whether o is a known operation.
func (o Op) Valid() bool {
	return o <= OpStatus
}

// Subsys maps a line operation to its subsystem counterpart. The
// second result is false for OpList, which has no dispatch.
func (o Op) Subsys() (subsys.Op, bool) {
	switch o {
	case OpReset:
		return subsys.OpReset, true
	case OpAssert:
		return subsys.OpAssert, true
	case OpDeassert:
		return subsys.OpDeassert, true
	case OpStatus:
		return subsys.OpStatus, true
	default:
		return 0, false
	}
}

// Status is the outcome class of a response.
type Status uint8

const (
	StatusOK Status = iota
	StatusBadRequest
	StatusUnknownController
	StatusUnauthorized
	StatusProtocol
)

// String returns the uppercase status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "BAD_REQUEST"
	case StatusUnknownController:
		return "UNKNOWN_CONTROLLER"
	case StatusUnauthorized:
		return "UNAUTHORIZED"
	case StatusProtocol:
		return "PROTOCOL"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}

// Hello opens a connection: the client's protocol version and its
// handshake nonce.
type Hello struct {
	Version string `cbor:"1,keyasint"`
	Nonce   []byte `cbor:"2,keyasint"`
}

// Welcome answers a Hello: the server's protocol version, its nonce,
// and, when the server authenticates, its session proof.
type Welcome struct {
	Version string `cbor:"1,keyasint"`
	Nonce   []byte `cbor:"2,keyasint"`
	Proof   []byte `cbor:"3,keyasint,omitempty"`
}

// Confirm finishes an authenticated handshake with the client's
// session proof.
type Confirm struct {
	Proof []byte `cbor:"1,keyasint"`
}

// Request asks the server to run one operation.
type Request struct {
	ID         uint32 `cbor:"1,keyasint"`
	Op         Op     `cbor:"2,keyasint"`
	Controller string `cbor:"3,keyasint,omitempty"`
	Line       uint64 `cbor:"4,keyasint,omitempty"`
}

// Validate checks a request for structural problems.
func (r *Request) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("request has no id")
	}
	if !r.Op.Valid() {
		return fmt.Errorf("unknown operation %d", uint8(r.Op))
	}
	if r.Op != OpList && r.Controller == "" {
		return fmt.Errorf("%s request names no controller", r.Op)
	}
	return nil
}

// Response carries the outcome of one request. Result is the signed
// subsystem code for line operations; Controllers is filled for list
// requests.
type Response struct {
	ID          uint32           `cbor:"1,keyasint"`
	Status      Status           `cbor:"2,keyasint"`
	Result      int32            `cbor:"3,keyasint,omitempty"`
	Reason      string           `cbor:"4,keyasint,omitempty"`
	Controllers []ControllerInfo `cbor:"5,keyasint,omitempty"`
}

// ControllerInfo describes one registered controller in a list
// response.
type ControllerInfo struct {
	Name         string   `cbor:"1,keyasint"`
	Node         string   `cbor:"2,keyasint,omitempty"`
	Lines        uint32   `cbor:"3,keyasint"`
	Capabilities []string `cbor:"4,keyasint,omitempty"`
}
