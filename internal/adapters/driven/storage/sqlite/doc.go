// Package sqlite provides a SQLite-based implementation of driven.KVStore and
// driven.SchedulerStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one connection:
//
//   - KVStore: hashes in kv_hashes (JSON fields plus an optional expiry),
//     set members in kv_sets
//   - SchedulerStore: scheduled task state and execution history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Expiry
//
// Hash expiry is lazy. An expired hash is deleted when it is read, and every
// key scan purges all expired hashes first.
//
// # Data Location
//
// By default, the database is stored at ~/.docflow/data/docflow.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
