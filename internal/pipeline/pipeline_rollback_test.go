package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	"github.com/tigerroll/surfin-etl/pkg/batch/component/migration"
	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/test"
)

type stubMigrator struct{ err error }

func (s stubMigrator) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return s.err
}

func (s stubMigrator) Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return nil
}

type stubMigratorProvider struct{ err error }

func (p stubMigratorProvider) NewMigrator(conn database.DBConnection) migration.Migrator {
	return stubMigrator{err: p.err}
}

type stubTxFactory struct{ manager tx.TransactionManager }

func (f stubTxFactory) NewTransactionManager(conn database.DBConnection) tx.TransactionManager {
	return f.manager
}

func newMockedPipeline(t *testing.T, manager *test.MockTxManager, migrateErr error) *Pipeline {
	t.Helper()
	conn := new(test.MockDBConnection)
	conn.On("Type").Return("sqlite")

	resolver := new(test.MockDBConnectionResolver)
	resolver.On("ResolveDBConnection", mock.Anything, "workload").Return(conn, nil)

	return NewPipeline(Params{
		Cfg:        config.NewConfig(),
		Resolver:   resolver,
		TxFactory:  stubTxFactory{manager: manager},
		Migrators:  stubMigratorProvider{err: migrateErr},
		LoadLogger: test.NewLogRecorder(),
	})
}

func TestPipeline_RollsBackOnEngineError(t *testing.T) {
	engineErr := errors.New("connection reset by peer")
	txn := new(test.MockTx)
	txn.On("BulkInsertMappings", mock.Anything, "response_events", mock.Anything, true).Return(engineErr)

	manager := new(test.MockTxManager)
	manager.On("Begin", mock.Anything, mock.Anything).Return(txn, nil)
	manager.On("Rollback", txn).Return(nil).Once()

	err := newMockedPipeline(t, manager, nil).Run(context.Background(), test.NewResponseEvents(3))

	assert.True(t, err == engineErr, "engine error is returned unchanged, got %v", err)
	manager.AssertExpectations(t)
	manager.AssertNotCalled(t, "Commit", mock.Anything)
	txn.AssertNotCalled(t, "Flush", mock.Anything)
}

func TestPipeline_CommitsAfterFlush(t *testing.T) {
	txn := new(test.MockTx)
	txn.On("BulkInsertMappings", mock.Anything, "response_events", mock.Anything, true).
		Run(func(args mock.Arguments) {
			for i, m := range args.Get(2).([]tx.Mapping) {
				m["id"] = int64(i + 1)
			}
		}).Return(nil)
	txn.On("Flush", mock.Anything).Return(nil).Once()

	manager := new(test.MockTxManager)
	manager.On("Begin", mock.Anything, mock.Anything).Return(txn, nil)
	manager.On("Commit", txn).Return(nil).Once()

	require.NoError(t, newMockedPipeline(t, manager, nil).Run(context.Background(), test.NewResponseEvents(2)))
	manager.AssertExpectations(t)
	txn.AssertExpectations(t)
}

func TestPipeline_MigrationFailureSkipsLoad(t *testing.T) {
	manager := new(test.MockTxManager)

	err := newMockedPipeline(t, manager, assert.AnError).Run(context.Background(), test.NewResponseEvents(1))

	assert.ErrorIs(t, err, assert.AnError)
	manager.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything)
}
