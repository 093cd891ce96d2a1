package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/resetline-protocol/resetline-go/pkg/log"
)

// FilterOptions selects the events the filter command keeps.
type FilterOptions struct {
	Output     string
	ConnID     string
	Controller string
	Op         string
	TimeStart  string
	TimeEnd    string
	Category   string
}

// eventFilter translates the command-line options into a log.Filter,
// parsing the RFC3339 time bounds and the category name.
func (o FilterOptions) eventFilter() (log.Filter, error) {
	f := log.Filter{
		ConnectionID: o.ConnID,
		Controller:   o.Controller,
		Op:           o.Op,
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, fmt.Errorf("bad time-start: %w", err)
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, fmt.Errorf("bad time-end: %w", err)
		}
		f.TimeEnd = &t
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	return f, nil
}

// RunFilter copies the events matching opts from the capture at path
// into a fresh capture at opts.Output.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := opts.eventFilter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("create output capture: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Close()
			return fmt.Errorf("read event: %w", err)
		}
		out.Log(event)
		count++
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("finish output capture: %w", err)
	}

	fmt.Printf("Wrote %d matching events to %s\n", count, opts.Output)
	return nil
}
