package log

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter narrows a Reader to matching events. Zero fields match
// everything, so the zero Filter passes the whole stream through.
type Filter struct {
	// ConnectionID keeps events from one control connection.
	ConnectionID string

	// Category keeps one event category.
	Category *Category

	// Controller keeps events for one controller device.
	Controller string

	// Op keeps dispatch events for one operation name.
	Op string

	// TimeStart drops events before this instant.
	TimeStart *time.Time

	// TimeEnd drops events at or after this instant.
	TimeEnd *time.Time
}

func (f *Filter) matches(e Event) bool {
	switch {
	case f.ConnectionID != "" && e.ConnectionID != f.ConnectionID:
		return false
	case f.Category != nil && e.Category != *f.Category:
		return false
	case f.Controller != "" && e.Controller != f.Controller:
		return false
	case f.Op != "" && (e.Dispatch == nil || e.Dispatch.Op != f.Op):
		return false
	case f.TimeStart != nil && e.Timestamp.Before(*f.TimeStart):
		return false
	case f.TimeEnd != nil && !e.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Reader iterates an rlog capture file event by event, skipping
// entries its filter rejects. A capture from a host that died
// mid-write can end in a partial event; Next surfaces that as a
// decode error once the intact prefix is consumed.
type Reader struct {
	file   *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens the capture at path with no filtering.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens the capture at path, yielding only events
// the filter keeps.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:   f,
		dec:    NewDecoder(f),
		filter: filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at the end of the
// stream.
func (r *Reader) Next() (Event, error) {
	for {
		var e Event
		if err := r.dec.Decode(&e); err != nil {
			if err == io.EOF {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(e) {
			return e, nil
		}
	}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
