package db

import "embed"

// MigrationFS embeds the SQL migrations for the users, sessions and audit_logs tables.
// Applied by the migrate runner (cmd/migrate).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
