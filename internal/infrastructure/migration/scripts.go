package migration

import "embed"

// Scripts holds the versioned SQL migrations for both strategies.
//
//go:embed scripts/goose/*.sql scripts/migrate/*.sql
var Scripts embed.FS

const (
	gooseDir   = "scripts/goose"
	migrateDir = "scripts/migrate"
)
