package test

import (
	"context"
	"errors"

	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
)

// ErrInjected is the default failure returned by FakeUnitOfWork when FailOnCall is hit.
var ErrInjected = errors.New("injected bulk insert failure")

// FakeUnitOfWork is an in-memory tx.UnitOfWork.
//
// Bulk inserts land in Inserted immediately; staged entities land in Flushed on Flush.
// Keys are handed out from 1 in submission order.
type FakeUnitOfWork struct {
	// KeyColumn receives generated keys. Defaults to "id".
	KeyColumn string
	// FailOnCall makes the n-th BulkInsertMappings call (1-based) fail. Zero disables it.
	FailOnCall int
	// Err is returned by the failing call. Defaults to ErrInjected.
	Err error
	// StageErr, when set, is returned by Stage once StageFailAt entities have been accepted.
	StageErr    error
	StageFailAt int

	// ChunkSizes holds the length of every BulkInsertMappings call, including a failed one.
	ChunkSizes []int
	// Tables holds the table name passed to every BulkInsertMappings call.
	Tables []string
	// Inserted holds the mappings of every successful bulk insert, in order.
	Inserted []tx.Mapping
	// Staged holds entities waiting for Flush.
	Staged []interface{}
	// Flushed holds entities written by Flush.
	Flushed []interface{}
	// FlushCalls counts Flush invocations.
	FlushCalls int

	nextKey int64
}

// BulkInsertMappings implements tx.BulkInserter.
func (f *FakeUnitOfWork) BulkInsertMappings(ctx context.Context, tableName string, mappings []tx.Mapping, returnDefaults bool) error {
	f.ChunkSizes = append(f.ChunkSizes, len(mappings))
	f.Tables = append(f.Tables, tableName)
	if f.FailOnCall > 0 && len(f.ChunkSizes) == f.FailOnCall {
		if f.Err != nil {
			return f.Err
		}
		return ErrInjected
	}

	key := f.KeyColumn
	if key == "" {
		key = "id"
	}
	for _, m := range mappings {
		f.nextKey++
		if returnDefaults {
			m[key] = f.nextKey
		}
		row := make(tx.Mapping, len(m)+1)
		for k, v := range m {
			row[k] = v
		}
		row[key] = f.nextKey
		f.Inserted = append(f.Inserted, row)
	}
	return nil
}

// Stage implements tx.UnitOfWork.
func (f *FakeUnitOfWork) Stage(ctx context.Context, entity interface{}) error {
	if f.StageErr != nil && len(f.Staged) == f.StageFailAt {
		return f.StageErr
	}
	f.Staged = append(f.Staged, entity)
	return nil
}

// Flush implements tx.UnitOfWork.
func (f *FakeUnitOfWork) Flush(ctx context.Context) error {
	f.FlushCalls++
	f.Flushed = append(f.Flushed, f.Staged...)
	f.Staged = nil
	return nil
}

// Calls returns the number of BulkInsertMappings invocations.
func (f *FakeUnitOfWork) Calls() int {
	return len(f.ChunkSizes)
}

var _ tx.UnitOfWork = (*FakeUnitOfWork)(nil)
