package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
)

// GormTransactionManager implements tx.TransactionManager.
// The connection is resolved on every Begin so a dropped pool is re-established.
type GormTransactionManager struct {
	dbResolver database.DBConnectionResolver
	dbName     string
	txOpts     []TxOption
}

// NewGormTransactionManager creates a manager for the connection named dbName.
func NewGormTransactionManager(dbResolver database.DBConnectionResolver, dbName string, opts ...TxOption) *GormTransactionManager {
	return &GormTransactionManager{dbResolver: dbResolver, dbName: dbName, txOpts: opts}
}

func (m *GormTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	conn, err := m.dbResolver.ResolveDBConnection(ctx, m.dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB connection '%s' for transaction: %w", m.dbName, err)
	}
	adapter, ok := conn.(*GormDBAdapter)
	if !ok {
		return nil, fmt.Errorf("internal error: DBConnection implementation is not *GormDBAdapter")
	}
	gormDB := adapter.GetGormDB().WithContext(ctx)

	var txOpts *sql.TxOptions
	if len(opts) > 0 && opts[0] != nil {
		txOpts = opts[0]
	}

	gormTx := gormDB.Begin(txOpts)
	if gormTx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}

	return NewGormTxAdapter(gormTx, m.txOpts...), nil
}

func (m *GormTransactionManager) Commit(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Commit().Error
}

func (m *GormTransactionManager) Rollback(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Rollback().Error
}

// GormTransactionManagerFactory is the GORM implementation of database.TransactionManagerFactory.
type GormTransactionManagerFactory struct {
	dbResolver database.DBConnectionResolver
	txOpts     []TxOption
}

// NewGormTransactionManagerFactory creates an instance of GormTransactionManagerFactory.
// opts are applied to every transaction the created managers begin.
func NewGormTransactionManagerFactory(dbResolver database.DBConnectionResolver, opts ...TxOption) *GormTransactionManagerFactory {
	return &GormTransactionManagerFactory{dbResolver: dbResolver, txOpts: opts}
}

// NewTransactionManager creates a GormTransactionManager for dbConn.
func (f *GormTransactionManagerFactory) NewTransactionManager(dbConn database.DBConnection) tx.TransactionManager {
	return NewGormTransactionManager(f.dbResolver, dbConn.Name(), f.txOpts...)
}

var (
	_ tx.TransactionManager              = (*GormTransactionManager)(nil)
	_ database.TransactionManagerFactory = (*GormTransactionManagerFactory)(nil)
)
