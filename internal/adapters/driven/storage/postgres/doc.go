// Package postgres provides a PostgreSQL implementation of driven.TaskStore
// on top of a pgx connection pool.
//
// The schema is created on startup with idempotent DDL, so several tasker
// processes can share one database without a separate migration step.
// Due dates are TIMESTAMPTZ and always read back in UTC.
package postgres
