package log

import "time"

// Event represents a resetline log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the control connection, when the event
	// originates from one (UUID).
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Controller is the device name of the controller involved.
	Controller string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Registration *RegistrationEvent `cbor:"10,keyasint,omitempty"`
	Dispatch     *DispatchEvent     `cbor:"11,keyasint,omitempty"`
	Frame        *FrameEvent        `cbor:"12,keyasint,omitempty"`
	State        *StateChangeEvent  `cbor:"13,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRegistration indicates a controller registration or
	// unregistration.
	CategoryRegistration Category = 0
	// CategoryDispatch indicates a per-line operation dispatch.
	CategoryDispatch Category = 1
	// CategoryFrame indicates a raw control-protocol frame.
	CategoryFrame Category = 2
	// CategoryState indicates a lifecycle state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRegistration:
		return "REGISTRATION"
	case CategoryDispatch:
		return "DISPATCH"
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RegistrationEvent captures a controller entering or leaving the
// subsystem.
type RegistrationEvent struct {
	// Registered is true for registration, false for unregistration.
	Registered bool `cbor:"1,keyasint"`

	// LineCount is the number of reset lines the controller exposes.
	LineCount uint32 `cbor:"2,keyasint,omitempty"`

	// Node is the topology node path, if the device has one.
	Node string `cbor:"3,keyasint,omitempty"`

	// Capabilities lists the operations the controller implements.
	Capabilities []string `cbor:"4,keyasint,omitempty"`

	// Code is the registration result (0 on success, negative errno on
	// rejection).
	Code int32 `cbor:"5,keyasint,omitempty"`
}

// DispatchEvent captures one per-line operation.
type DispatchEvent struct {
	// Op is the operation name (reset, assert, deassert, status).
	Op string `cbor:"1,keyasint"`

	// Line is the line identifier the operation targeted.
	Line uint64 `cbor:"2,keyasint"`

	// Result is the signed result code (non-negative payload or
	// negative errno).
	Result int32 `cbor:"3,keyasint"`

	// Duration is how long the dispatch took.
	// Stored as nanoseconds.
	Duration *time.Duration `cbor:"4,keyasint,omitempty"`
}

// FrameEvent captures raw frame data at the control transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Outgoing is true for frames written, false for frames read.
	Outgoing bool `cbor:"2,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityController indicates a controller state change.
	StateEntityController StateEntity = 0
	// StateEntityConnection indicates a control connection state change.
	StateEntityConnection StateEntity = 1
	// StateEntityServer indicates a control server state change.
	StateEntityServer StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityController:
		return "CONTROLLER"
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityServer:
		return "SERVER"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the signed error code (if applicable).
	Code *int32 `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
