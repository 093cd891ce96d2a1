package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// An rlog stream is deterministic CBOR: canonical map order, definite
// lengths, RFC3339Nano timestamps. Decoding is looser and tolerates
// duplicate keys, indefinite lengths, and fields this version does not
// know, so captures from newer hosts stay readable.
var (
	rlogEnc = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	rlogDec = mustDecMode(cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: bad encoder options: %v", err))
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: bad decoder options: %v", err))
	}
	return dm
}

// EncodeEvent marshals one event into its compact integer-keyed form.
func EncodeEvent(event Event) ([]byte, error) {
	return rlogEnc.Marshal(event)
}

// DecodeEvent unmarshals a single CBOR-encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := rlogDec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns an encoder that appends events to w, one CBOR
// document each.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return rlogEnc.NewEncoder(w)
}

// NewDecoder returns a decoder for a stream written by NewEncoder.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return rlogDec.NewDecoder(r)
}
