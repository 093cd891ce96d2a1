package control

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for control messages, configured
// for deterministic output with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode, lenient for forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeRequest encodes a validated request.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes and validates a request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response message.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// EncodeHello encodes a hello message.
func EncodeHello(h *Hello) ([]byte, error) {
	return Marshal(h)
}

// DecodeHello decodes a hello message.
func DecodeHello(data []byte) (*Hello, error) {
	var h Hello
	if err := Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode hello: %w", err)
	}
	return &h, nil
}

// EncodeWelcome encodes a welcome message.
func EncodeWelcome(w *Welcome) ([]byte, error) {
	return Marshal(w)
}

// DecodeWelcome decodes a welcome message.
func DecodeWelcome(data []byte) (*Welcome, error) {
	var w Welcome
	if err := Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode welcome: %w", err)
	}
	return &w, nil
}

// EncodeConfirm encodes a handshake confirm message.
func EncodeConfirm(c *Confirm) ([]byte, error) {
	return Marshal(c)
}

// DecodeConfirm decodes a handshake confirm message.
func DecodeConfirm(data []byte) (*Confirm, error) {
	var c Confirm
	if err := Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode confirm: %w", err)
	}
	return &c, nil
}
