// Package tx defines the persistence boundary the loaders write through: the bulk-insert
// primitive, the unit of work that stages and flushes entities, and the transaction
// manager that owns commit and rollback.
package tx

import (
	"context"
	"database/sql"
)

// Mapping holds one row's persistable attributes keyed by column name.
// It is decoupled from any entity type.
type Mapping map[string]interface{}

// BulkInserter is the bulk-insert primitive of a persistence engine.
type BulkInserter interface {
	// BulkInsertMappings inserts mappings into tableName as one bulk operation.
	//
	// When returnDefaults is true the engine writes the store-generated key of each row
	// into the corresponding Mapping before returning; mappings are output parameters in
	// that case. When false, generated columns are not added to the mappings.
	//
	// The insert is part of the current unit of work. Nothing is committed.
	BulkInsertMappings(ctx context.Context, tableName string, mappings []Mapping, returnDefaults bool) error
}

// UnitOfWork accumulates changes until the caller flushes and commits them.
type UnitOfWork interface {
	BulkInserter

	// Stage queues entity for insertion on the next Flush. It performs no I/O.
	Stage(ctx context.Context, entity interface{}) error

	// Flush writes all staged entities, in staging order, to the store.
	// Written rows become visible to readers of the same transaction.
	Flush(ctx context.Context) error
}

// Tx is a unit of work bound to an open database transaction.
// Only its TransactionManager commits or rolls it back.
type Tx interface {
	UnitOfWork
}

// TransactionManager manages the lifecycle of transactions (begin, commit, rollback).
type TransactionManager interface {
	// Begin starts a new transaction. opts may carry isolation level or read-only settings.
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit commits tx, persisting all flushed and bulk-inserted changes.
	Commit(tx Tx) error
	// Rollback rolls back tx, undoing every change made within it.
	Rollback(tx Tx) error
}
