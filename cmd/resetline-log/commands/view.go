// Package commands implements the resetline-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/resetline-protocol/resetline-go/pkg/errno"
	"github.com/resetline-protocol/resetline-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category   *log.Category
	Controller string
	Op         string
	ConnID     string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] CATEGORY controller
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	fmt.Fprintf(w, "%s [conn:%s] %-12s %s\n", ts, connID, event.Category.String(), event.Controller)

	// Type-specific details
	switch {
	case event.Registration != nil:
		formatRegistrationDetails(w, event.Registration)
	case event.Dispatch != nil:
		formatDispatchDetails(w, event.Dispatch)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.State != nil:
		formatStateDetails(w, event.State)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatRegistrationDetails writes registration details.
func formatRegistrationDetails(w io.Writer, reg *log.RegistrationEvent) {
	if reg.Registered {
		fmt.Fprintln(w, "  Registered")
	} else {
		fmt.Fprintln(w, "  Unregistered")
	}
	if reg.LineCount > 0 {
		fmt.Fprintf(w, "  Lines: %d\n", reg.LineCount)
	}
	if reg.Node != "" {
		fmt.Fprintf(w, "  Node: %s\n", reg.Node)
	}
	if len(reg.Capabilities) > 0 {
		fmt.Fprintf(w, "  Capabilities: %s\n", strings.Join(reg.Capabilities, ", "))
	}
	if reg.Code != 0 {
		fmt.Fprintf(w, "  Code: %s\n", formatResult(reg.Code))
	}
}

// formatDispatchDetails writes dispatch details.
func formatDispatchDetails(w io.Writer, d *log.DispatchEvent) {
	fmt.Fprintf(w, "  Op: %s\n", d.Op)
	fmt.Fprintf(w, "  Line: %d\n", d.Line)
	fmt.Fprintf(w, "  Result: %s\n", formatResult(d.Result))
	if d.Duration != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*d.Duration))
	}
}

// formatFrameDetails writes frame-specific details.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	dir := "in"
	if frame.Outgoing {
		dir = "out"
	}
	fmt.Fprintf(w, "  Direction: %s\n", dir)
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatStateDetails writes state change details.
func formatStateDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %s\n", formatResult(*err.Code))
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatResult renders a signed result code, naming the errno for
// negative values.
func formatResult(code int32) string {
	if code >= 0 {
		return fmt.Sprintf("%d", code)
	}
	if e, ok := errno.FromCode(code); ok {
		return fmt.Sprintf("%d (%s)", code, e.String())
	}
	return fmt.Sprintf("%d", code)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []log.Event, filter ViewFilter) []log.Event {
	var result []log.Event
	for _, e := range events {
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.Controller != "" && e.Controller != filter.Controller {
			continue
		}
		if filter.Op != "" && (e.Dispatch == nil || e.Dispatch.Op != filter.Op) {
			continue
		}
		if filter.ConnID != "" && e.ConnectionID != filter.ConnID {
			continue
		}
		result = append(result, e)
	}
	return result
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "registration":
		return log.CategoryRegistration, nil
	case "dispatch":
		return log.CategoryDispatch, nil
	case "frame":
		return log.CategoryFrame, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be registration, dispatch, frame, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		// Apply filter
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.Controller != "" && event.Controller != filter.Controller {
			continue
		}
		if filter.Op != "" && (event.Dispatch == nil || event.Dispatch.Op != filter.Op) {
			continue
		}
		if filter.ConnID != "" && event.ConnectionID != filter.ConnID {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
