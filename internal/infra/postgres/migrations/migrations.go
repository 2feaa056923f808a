// Package migrations holds the bun migrations for the question bank schema.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is registered by the numbered files in this package; bun
// derives each migration's version from its file name.
var Migrations = migrate.NewMigrations()
