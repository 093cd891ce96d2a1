package journal

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	j, _ := openTestJournal(t)

	var mode string
	if err := j.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := j.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys query failed: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var timeout int
	if err := j.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout query failed: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}

	var syncMode int
	if err := j.db.QueryRow("PRAGMA synchronous").Scan(&syncMode); err != nil {
		t.Fatalf("synchronous query failed: %v", err)
	}
	if syncMode != 1 {
		t.Errorf("synchronous = %d, want 1 (NORMAL)", syncMode)
	}
}

func TestRecordAndRecent(t *testing.T) {
	j, _ := openTestJournal(t)

	base := time.UnixMilli(1700000000000).UTC()
	entries := []Entry{
		{Time: base, Controller: "soc-reset", Op: "reset", Line: 0, Result: 0},
		{Time: base.Add(time.Second), Controller: "soc-reset", Op: "assert", Line: 1, Result: 0},
		{Time: base.Add(2 * time.Second), Controller: "pmic-reset", Op: "status", Line: 0, Result: 1, ConnectionID: "conn-1"},
	}
	for _, e := range entries {
		if err := j.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}

	// Newest first.
	if got[0].Controller != "pmic-reset" || got[0].Op != "status" {
		t.Errorf("newest entry = %+v", got[0])
	}
	if got[0].ConnectionID != "conn-1" {
		t.Errorf("connection id = %q, want conn-1", got[0].ConnectionID)
	}
	if !got[0].Time.Equal(base.Add(2 * time.Second)) {
		t.Errorf("time = %v, want %v", got[0].Time, base.Add(2*time.Second))
	}
	if got[2].Op != "reset" {
		t.Errorf("oldest entry = %+v", got[2])
	}
}

func TestRecordFillsDefaults(t *testing.T) {
	j, _ := openTestJournal(t)

	if err := j.Record(Entry{Controller: "soc-reset", Op: "reset"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := j.Recent(1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Error("ID was not filled")
	}
	if got[0].Time.IsZero() {
		t.Error("Time was not filled")
	}
}

func TestRecordValidation(t *testing.T) {
	j, _ := openTestJournal(t)

	if err := j.Record(Entry{Op: "reset"}); err == nil {
		t.Error("expected error for missing controller")
	}
	if err := j.Record(Entry{Controller: "soc-reset"}); err == nil {
		t.Error("expected error for missing op")
	}
}

func TestControllerFilter(t *testing.T) {
	j, _ := openTestJournal(t)

	base := time.UnixMilli(1700000000000).UTC()
	for i, ctrl := range []string{"a", "b", "a", "a", "b"} {
		e := Entry{Time: base.Add(time.Duration(i) * time.Second), Controller: ctrl, Op: "reset"}
		if err := j.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.Controller("a", 0)
	if err != nil {
		t.Fatalf("Controller failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries for controller a, got %d", len(got))
	}
	for _, e := range got {
		if e.Controller != "a" {
			t.Errorf("entry for wrong controller: %+v", e)
		}
	}
}

func TestRecentLimit(t *testing.T) {
	j, _ := openTestJournal(t)

	base := time.UnixMilli(1700000000000).UTC()
	for i := 0; i < 10; i++ {
		e := Entry{Time: base.Add(time.Duration(i) * time.Second), Controller: "soc-reset", Op: "reset"}
		if err := j.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.Recent(4)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 entries, got %d", len(got))
	}
}

func TestStats(t *testing.T) {
	j, _ := openTestJournal(t)

	empty, err := j.Stats()
	if err != nil {
		t.Fatalf("Stats on empty journal failed: %v", err)
	}
	if empty.Total != 0 || !empty.First.IsZero() || !empty.Last.IsZero() {
		t.Errorf("empty stats = %+v", empty)
	}

	base := time.UnixMilli(1700000000000).UTC()
	records := []Entry{
		{Time: base, Controller: "soc-reset", Op: "reset", Result: 0},
		{Time: base.Add(time.Second), Controller: "soc-reset", Op: "reset", Result: -19},
		{Time: base.Add(2 * time.Second), Controller: "pmic-reset", Op: "status", Result: 1},
	}
	for _, e := range records {
		if err := j.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	stats, err := j.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.Failures != 1 {
		t.Errorf("failures = %d, want 1", stats.Failures)
	}
	if stats.ByOp["reset"] != 2 || stats.ByOp["status"] != 1 {
		t.Errorf("by op = %v", stats.ByOp)
	}
	if stats.ByController["soc-reset"] != 2 || stats.ByController["pmic-reset"] != 1 {
		t.Errorf("by controller = %v", stats.ByController)
	}
	if !stats.First.Equal(base) {
		t.Errorf("first = %v, want %v", stats.First, base)
	}
	if !stats.Last.Equal(base.Add(2 * time.Second)) {
		t.Errorf("last = %v, want %v", stats.Last, base.Add(2*time.Second))
	}
}

func TestEntryFailed(t *testing.T) {
	if (Entry{Result: 0}).Failed() {
		t.Error("result 0 is not a failure")
	}
	if (Entry{Result: 1}).Failed() {
		t.Error("positive result is not a failure")
	}
	if !(Entry{Result: -22}).Failed() {
		t.Error("negative result is a failure")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := j.Record(Entry{Controller: "soc-reset", Op: "reset"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	j, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer j.Close()

	got, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 entry after reopen, got %d", len(got))
	}
}

func TestNewerSchemaRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("raw open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_meta SET version = ?", schemaVersion+1); err != nil {
		t.Fatalf("bump version failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("raw close failed: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected error for newer schema version")
	}
}
