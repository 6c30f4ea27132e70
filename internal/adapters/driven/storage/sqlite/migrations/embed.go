// Package migrations embeds the forward-only SQL migrations for the SQLite
// task store. Files are named NNN_description.up.sql and applied in order.
package migrations

import "embed"

// FS holds the migration scripts.
//
//go:embed *.sql
var FS embed.FS
