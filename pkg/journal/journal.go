package journal

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS operations (
	id            TEXT PRIMARY KEY,
	recorded_at   INTEGER NOT NULL,
	connection_id TEXT NOT NULL DEFAULT '',
	controller    TEXT NOT NULL,
	op            TEXT NOT NULL,
	line          INTEGER NOT NULL,
	result        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_recorded_at ON operations(recorded_at);
CREATE INDEX IF NOT EXISTS idx_operations_controller ON operations(controller);
`

// defaultLimit is used when a query is asked for a non-positive number
// of entries.
const defaultLimit = 100

// Entry is one journaled line operation.
type Entry struct {
	// ID is the entry's UUID. Record fills it when empty.
	ID string

	// Time is when the operation was dispatched. Record fills it when
	// zero.
	Time time.Time

	// ConnectionID names the control connection the operation arrived
	// on, empty for local dispatches.
	ConnectionID string

	Controller string
	Op         string
	Line       uint64

	// Result is the signed code the dispatch returned.
	Result int32
}

// Failed reports whether the operation returned an error code.
func (e Entry) Failed() bool {
	return e.Result < 0
}

// Stats summarizes the journal's contents.
type Stats struct {
	Total        int
	Failures     int
	ByOp         map[string]int
	ByController map[string]int

	// First and Last bound the recorded time range; both are zero for
	// an empty journal.
	First time.Time
	Last  time.Time
}

// Journal persists dispatched operations in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database and ensures the schema
// is at the current version. An outdated schema is dropped and
// recreated; a newer one is refused.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	// Pragmas ride the connection string so that every pooled
	// connection gets them, not just the first.
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close closes the database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one entry. Missing ID and Time fields are filled.
func (j *Journal) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Controller == "" {
		return fmt.Errorf("entry names no controller")
	}
	if e.Op == "" {
		return fmt.Errorf("entry names no operation")
	}

	_, err := j.db.Exec(`
		INSERT INTO operations (id, recorded_at, connection_id, controller, op, line, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, toMillis(e.Time), e.ConnectionID, e.Controller, e.Op, int64(e.Line), e.Result,
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first. A non-positive
// limit means the default of 100.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return j.query(`
		SELECT id, recorded_at, connection_id, controller, op, line, result
		FROM operations ORDER BY recorded_at DESC, id LIMIT ?`, limit)
}

// Controller returns the newest entries of one controller, newest
// first.
func (j *Journal) Controller(name string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return j.query(`
		SELECT id, recorded_at, connection_id, controller, op, line, result
		FROM operations WHERE controller = ? ORDER BY recorded_at DESC, id LIMIT ?`, name, limit)
}

func (j *Journal) query(stmt string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			ts   int64
			line int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.ConnectionID, &e.Controller, &e.Op, &line, &e.Result); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		e.Time = fromMillis(ts)
		e.Line = uint64(line)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes the journal.
func (j *Journal) Stats() (Stats, error) {
	stats := Stats{
		ByOp:         make(map[string]int),
		ByController: make(map[string]int),
	}

	var first, last sql.NullInt64
	err := j.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE result < 0),
		       MIN(recorded_at), MAX(recorded_at)
		FROM operations`).Scan(&stats.Total, &stats.Failures, &first, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("query totals: %w", err)
	}
	if first.Valid {
		stats.First = fromMillis(first.Int64)
	}
	if last.Valid {
		stats.Last = fromMillis(last.Int64)
	}

	if err := j.countBy("op", stats.ByOp); err != nil {
		return Stats{}, err
	}
	if err := j.countBy("controller", stats.ByController); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (j *Journal) countBy(column string, into map[string]int) error {
	rows, err := j.db.Query(fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM operations GROUP BY %s", column, column))
	if err != nil {
		return fmt.Errorf("query %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		into[key] = count
	}
	return rows.Err()
}

// ensureSchema brings the database to the current schema version.
func ensureSchema(db *sql.DB) error {
	ver, err := currentSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}

	switch {
	case ver == schemaVersion:
		return nil
	case ver > schemaVersion:
		return fmt.Errorf("journal schema version %d is newer than supported %d", ver, schemaVersion)
	case ver > 0:
		// Outdated journal: a bench journal is not worth a migration
		// framework, recreate from scratch.
		if err := dropSchema(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// currentSchemaVersion returns the version from schema_meta, or 0 for
// a fresh database.
func currentSchemaVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	var ver int
	err = db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

func dropSchema(db *sql.DB) error {
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS operations",
		"DROP TABLE IF EXISTS schema_meta",
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
