// Package migration creates and removes the tables the loaders write to.
// Schemas are versioned golang-migrate scripts, one directory per database type.
package migration

import (
	"context"
	"io/fs"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
)

// DefaultMigrationsTable tracks the applied schema version.
const DefaultMigrationsTable = "etl_schema_migrations"

// Migrator handles database schema migrations.
type Migrator interface {
	// Up applies all pending migrations found under path in migrationFS.
	// tableName is the table used to track migration history.
	Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Down rolls back all applied migrations.
	Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
}

// MigratorProvider is a factory for creating Migrator instances.
type MigratorProvider interface {
	NewMigrator(dbConn database.DBConnection) Migrator
}
