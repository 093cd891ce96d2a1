// Package journal persists dispatched line operations in SQLite.
//
// A host records every operation its control server dispatches, so
// bench sessions can be reconstructed after the fact: which
// connection reset which line, when, and with what result. The
// database is a single file opened in WAL mode; the schema carries a
// version in schema_meta and is recreated when outdated.
package journal
