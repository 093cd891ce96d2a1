package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/resetline-protocol/resetline-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.rlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Category:     log.CategoryDispatch,
			Controller:   "soc-reset",
			Dispatch: &log.DispatchEvent{
				Op:     "reset",
				Line:   1,
				Result: 0,
			},
		},
		{
			Timestamp:    ts.Add(time.Second),
			ConnectionID: "abc12345",
			Category:     log.CategoryDispatch,
			Controller:   "soc-reset",
			Dispatch: &log.DispatchEvent{
				Op:     "status",
				Line:   1,
				Result: 1,
			},
		},
	}

	path := createTestLogFile(t, events)

	// Export to JSONL in memory (via temp file)
	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	err := RunExport(path, "jsonl", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	// Read and verify
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}

	// Parse first line
	var event1 map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event1); err != nil {
		t.Errorf("failed to parse line 1: %v", err)
	}
	if event1["ConnectionID"] != "abc12345" {
		t.Errorf("expected ConnectionID abc12345, got %v", event1["ConnectionID"])
	}
	if event1["Controller"] != "soc-reset" {
		t.Errorf("expected Controller soc-reset, got %v", event1["Controller"])
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Category:     log.CategoryDispatch,
			Controller:   "soc-reset",
			Dispatch: &log.DispatchEvent{
				Op:     "assert",
				Line:   3,
				Result: -22,
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	err := RunExport(path, "csv", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	// Check header
	if !strings.HasPrefix(string(data), "timestamp,connection_id,category,controller") {
		t.Errorf("expected CSV header, got: %s", string(data[:50]))
	}

	// Check data row
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected header + data row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "soc-reset,dispatch,assert,3,-22") {
		t.Errorf("unexpected data row: %s", lines[1])
	}
}

func TestExportCSVRegistration(t *testing.T) {
	events := []log.Event{
		{
			Timestamp:  time.Now(),
			Category:   log.CategoryRegistration,
			Controller: "soc-reset",
			Registration: &log.RegistrationEvent{
				Registered: true,
				LineCount:  4,
			},
		},
		{
			Timestamp:  time.Now(),
			Category:   log.CategoryRegistration,
			Controller: "soc-reset",
			Registration: &log.RegistrationEvent{
				Registered: false,
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	if !strings.Contains(string(data), "register") {
		t.Errorf("expected register row, got: %s", string(data))
	}
	if !strings.Contains(string(data), "unregister") {
		t.Errorf("expected unregister row, got: %s", string(data))
	}
}

func TestExportWritesToStdout(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Category:     log.CategoryFrame,
			Frame:        &log.FrameEvent{Size: 64},
		},
	}

	path := createTestLogFile(t, events)

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunExport(path, "jsonl", "") // empty output means stdout

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if buf.Len() == 0 {
		t.Error("expected output to stdout")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	events := []log.Event{
		{
			Timestamp:    time.Now(),
			ConnectionID: "abc12345",
			Frame:        &log.FrameEvent{Size: 64},
		},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.xml")

	err := RunExport(path, "xml", outPath)
	if err == nil {
		t.Error("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected 'unknown format' error, got: %v", err)
	}
}
