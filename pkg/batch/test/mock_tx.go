package test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
)

// MockUnitOfWork is a mock implementation of the tx.UnitOfWork interface.
type MockUnitOfWork struct {
	mock.Mock
}

// BulkInsertMappings mocks the BulkInsertMappings method of tx.BulkInserter.
func (m *MockUnitOfWork) BulkInsertMappings(ctx context.Context, tableName string, mappings []tx.Mapping, returnDefaults bool) error {
	args := m.Called(ctx, tableName, mappings, returnDefaults)
	return args.Error(0)
}

// Stage mocks the Stage method of tx.UnitOfWork.
func (m *MockUnitOfWork) Stage(ctx context.Context, entity interface{}) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

// Flush mocks the Flush method of tx.UnitOfWork.
func (m *MockUnitOfWork) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTx is a mock implementation of the tx.Tx interface.
type MockTx struct {
	MockUnitOfWork
}

// MockTxManager is a mock implementation of the tx.TransactionManager interface.
type MockTxManager struct {
	mock.Mock
}

// Begin mocks the Begin method of tx.TransactionManager.
func (m *MockTxManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tx.Tx), args.Error(1)
}

// Commit mocks the Commit method of tx.TransactionManager.
func (m *MockTxManager) Commit(t tx.Tx) error {
	args := m.Called(t)
	return args.Error(0)
}

// Rollback mocks the Rollback method of tx.TransactionManager.
func (m *MockTxManager) Rollback(t tx.Tx) error {
	args := m.Called(t)
	return args.Error(0)
}

var (
	_ tx.UnitOfWork         = (*MockUnitOfWork)(nil)
	_ tx.Tx                 = (*MockTx)(nil)
	_ tx.TransactionManager = (*MockTxManager)(nil)
)
