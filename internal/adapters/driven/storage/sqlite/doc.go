// Package sqlite provides a SQLite implementation of driven.TaskStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, so the tasker binary cross-compiles without a C toolchain.
//
// # Schema
//
// The tasks table is created by versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// Timestamps are stored as fixed-width UTC text, so ordering by due_date in
// SQL matches ordering by instant.
//
// # Data Location
//
// By default, the database is stored at ~/.tasker/data/tasks.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on SQLite's
// locking in WAL mode with a busy timeout.
package sqlite
