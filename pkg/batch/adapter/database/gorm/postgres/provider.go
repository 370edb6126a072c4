// Package postgres provides a GORM DBProvider implementation for PostgreSQL databases.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/config"
)

func init() {
	gormadapter.RegisterDialector("postgres", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open((&PostgresDBProvider{}).ConnectionString(cfg)), nil
	})
}

// PostgresDBProvider handles PostgreSQL connections.
type PostgresDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString returns the key/value DSN expected by gorm.io/driver/postgres.
// A configured schema is applied through search_path.
func (p *PostgresDBProvider) ConnectionString(c dbconfig.DatabaseConfig) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.Sslmode)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

// NewProvider creates a new database.DBProvider for PostgreSQL.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &PostgresDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "postgres")}
}
