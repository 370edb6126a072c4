package migration

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
)

//go:embed schema
var rawSchemaFS embed.FS

// ProvideSchemaFS returns the embedded schema scripts. Each top-level directory
// is named after a database type ("sqlite", "mysql", "postgres").
func ProvideSchemaFS() (fs.FS, error) {
	sub, err := fs.Sub(rawSchemaFS, "schema")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded schema directory: %w", err)
	}
	return sub, nil
}

// ApplySchema brings conn's response event schema up to date.
func ApplySchema(ctx context.Context, provider MigratorProvider, conn database.DBConnection) error {
	schemaFS, err := ProvideSchemaFS()
	if err != nil {
		return err
	}
	return provider.NewMigrator(conn).Up(ctx, schemaFS, conn.Type(), DefaultMigrationsTable)
}
