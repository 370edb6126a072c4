package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/surfin-etl/pkg/batch/core/adapter"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
)

// DBExecutor defines the read operations available outside a managed transaction.
// Writes go through tx.UnitOfWork.
type DBExecutor interface {
	// ExecuteQueryAdvanced executes a read operation with optional sorting and limiting.
	ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error

	// Count counts the number of records matching the query.
	Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error)
}

// DBConnection represents an abstraction of a database connection.
type DBConnection interface {
	coreAdapter.ResourceConnection // Embeds Type(), Name(), Close()
	DBExecutor

	// IsTableNotExistError checks if the given error indicates that a table does not exist.
	IsTableNotExistError(err error) bool
	// RefreshConnection pings the pool to verify the connection is still usable.
	RefreshConnection(ctx context.Context) error
	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB connection.
	GetSQLDB() (*sql.DB, error)
}

// DBConnectionResolver resolves a named database connection, re-establishing it if necessary.
type DBConnectionResolver interface {
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProvider is responsible for providing database connections based on configuration.
type DBProvider interface {
	coreAdapter.ResourceProvider

	// GetConnection retrieves a database connection with the specified name.
	GetConnection(name string) (DBConnection, error)
	// ForceReconnect closes and re-establishes the connection with the specified name.
	ForceReconnect(name string) (DBConnection, error)
}

// TransactionManagerFactory creates a tx.TransactionManager bound to a connection.
type TransactionManagerFactory interface {
	NewTransactionManager(conn DBConnection) tx.TransactionManager
}

// DBProviderGroup is an Fx group name collecting all DBProvider implementations.
const DBProviderGroup = "db_providers"
