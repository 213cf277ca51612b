// Package store provides SQLite-backed persistence for taxflow.
//
// Two tables are kept:
//   - resources: named JSON payloads (tax tables, rebate schedules) that
//     LoadConstantsCommand steps read through the engine.Fetcher interface
//   - runs: one row per pipeline execution with its inputs, final record,
//     outputs and failure code
//
// # Ordering
//
// Rows carry a logical seq assigned by the store. Queries order by seq and
// then by the primary key compared as bytes, so listings are identical
// across machines and never depend on wall time.
//
// # Connections
//
// Open configures WAL journaling with synchronous=NORMAL, a five second
// busy timeout and foreign key enforcement through the DSN, and limits the
// pool to a single connection. Schema upgrades are tracked in
// PRAGMA user_version.
//
// JSON columns hold canonical JSON produced by ir.MarshalCanonical, and
// content hashes come from internal/ir/hash.go.
package store
