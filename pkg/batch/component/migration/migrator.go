package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

const moduleName = "migration"

// ErrUnsupportedDatabase is wrapped when no migration driver exists for a connection type.
var ErrUnsupportedDatabase = errors.New("unsupported database type for migration")

// migratorImpl implements Migrator
type migratorImpl struct {
	dbConn database.DBConnection
	dbType string
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(dbConn database.DBConnection) Migrator {
	return &migratorImpl{
		dbConn: dbConn,
		dbType: dbConn.Type(),
	}
}

// session is one golang-migrate instance bound to a borrowed connection.
// The shared *sql.DB is never closed by it.
type session struct {
	m       *migrate.Migrate
	source  source.Driver
	release func() error
}

func (s *session) close() {
	if err := s.source.Close(); err != nil {
		logger.Warnf("Failed to close migration source: %v", err)
	}
	if s.release != nil {
		if err := s.release(); err != nil {
			logger.Warnf("Failed to release migration connection: %v", err)
		}
	}
}

// getDatabaseDriver retrieves a migrate/v4 Driver based on the database type.
// Server databases get a dedicated *sql.Conn that release returns to the pool.
func (m *migratorImpl) getDatabaseDriver(ctx context.Context, sqlDB *sql.DB, tableName string) (migratedb.Driver, func() error, error) {
	switch m.dbType {
	case "postgres", "mysql":
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reserve a connection: %w", err)
		}
		var driver migratedb.Driver
		if m.dbType == "postgres" {
			driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: tableName})
		} else {
			driver, err = mysql.WithConnection(ctx, conn, &mysql.Config{MigrationsTable: tableName})
		}
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return driver, conn.Close, nil
	case "sqlite":
		driver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: tableName})
		return driver, nil, err
	default:
		return nil, nil, exception.NewBatchErrorf(moduleName, "no migration driver for %q", m.dbType, ErrUnsupportedDatabase)
	}
}

func (m *migratorImpl) open(ctx context.Context, migrationFS fs.FS, path string, tableName string) (*session, error) {
	sqlDB, err := m.dbConn.GetSQLDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, release, err := m.getDatabaseDriver(ctx, sqlDB, tableName)
	if err != nil {
		_ = sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		s := &session{source: sourceDriver, release: release}
		s.close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	mInstance.Log = &migrateLogger{}
	return &session{m: mInstance, source: sourceDriver, release: release}, nil
}

func (m *migratorImpl) runMigration(ctx context.Context, migrationFS fs.FS, path string, command string, tableName string) error {
	logger.Infof("Executing migration '%s' (Path: %s, Table: %s)", command, path, tableName)

	s, err := m.open(ctx, migrationFS, path, tableName)
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to prepare migration '%s' for %s", command, m.dbConn.Name(), err)
	}
	defer s.close()

	// GracefulStop lets a running script finish before the cancellation is honoured.
	stop := context.AfterFunc(ctx, func() { s.m.GracefulStop <- true })
	defer stop()

	var migrateErr error
	switch command {
	case "up":
		migrateErr = s.m.Up()
	case "down":
		migrateErr = s.m.Down()
	default:
		return fmt.Errorf("unsupported migration command: %s", command)
	}

	if migrateErr != nil && !errors.Is(migrateErr, migrate.ErrNoChange) {
		if version, dirty, versionErr := s.m.Version(); versionErr == nil && dirty {
			logger.Errorf("Migration left %s dirty at version %d", tableName, version)
		}
		return exception.NewBatchErrorf(moduleName, "migration '%s' failed (DB: %s, Path: %s)", command, m.dbType, path, migrateErr)
	}

	if errors.Is(migrateErr, migrate.ErrNoChange) {
		logger.Infof("Migration '%s': schema already up to date.", command)
		return nil
	}
	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, "up", tableName)
}

func (m *migratorImpl) Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, "down", tableName)
}

// migrateLogger forwards golang-migrate progress to the DEBUG log.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	logger.Debugf("[migrate] "+strings.TrimSpace(format), v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// migratorProviderImpl implements MigratorProvider
type migratorProviderImpl struct{}

// NewMigratorProvider creates a new MigratorProvider.
func NewMigratorProvider() MigratorProvider {
	return &migratorProviderImpl{}
}

func (p *migratorProviderImpl) NewMigrator(dbConn database.DBConnection) Migrator {
	return NewMigrator(dbConn)
}
