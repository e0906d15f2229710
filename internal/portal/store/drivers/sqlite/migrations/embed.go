package migrations

import "embed"

// Migrations contains the embedded SQLite migration files which are compiled
// into the binary.
//
//go:embed *.sql
var Migrations embed.FS
