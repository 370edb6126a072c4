// Package loader persists entities into a relational store through a unit of work.
//
// The bulk path flattens entities to tx.Mapping values and submits them in
// fixed-size chunks; the entity path stages live entities for the caller's flush.
// Either path reports exactly one summary record per Load call and never flushes,
// commits or rolls back.
package loader

import (
	"context"
	"errors"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
)

const moduleName = "loader"

// ErrInvalidChunkSize is wrapped by the error returned for a chunk size below 1.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Partition splits items into consecutive windows of at most size elements.
// The last window may be shorter. Each window is capacity-limited, so appending
// to one never overwrites the next. Partition panics if size < 1.
func Partition[T any](items []T, size int) [][]T {
	if size < 1 {
		panic("loader: partition size must be positive")
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end:end])
	}
	return chunks
}

func validateChunkSize(chunkSize int) error {
	if chunkSize < 1 {
		return exception.NewBatchErrorf(moduleName, "invalid chunk size %d", chunkSize, ErrInvalidChunkSize)
	}
	return nil
}

// ChunkedBulkInsertMappings submits mappings to engine in chunks of at most chunkSize,
// one BulkInsertMappings call per chunk, strictly in order.
//
// When returnDefaults is true the engine writes generated keys into the mappings
// before each call returns. An engine error is returned as is; chunks submitted
// before it stay in the unit of work. A chunkSize below 1 fails before any call,
// even for empty input.
func ChunkedBulkInsertMappings(ctx context.Context, engine tx.BulkInserter, tableName string, mappings []tx.Mapping, chunkSize int, returnDefaults bool) error {
	if err := validateChunkSize(chunkSize); err != nil {
		return err
	}
	return insertChunks(ctx, engine, tableName, mappings, chunkSize, returnDefaults, nil)
}

// chunkObserver is called before each engine call. It may return a derived context
// for the call and a function receiving the call's result.
type chunkObserver func(ctx context.Context, index, size int) (context.Context, func(err error))

func insertChunks(ctx context.Context, engine tx.BulkInserter, tableName string, mappings []tx.Mapping, chunkSize int, returnDefaults bool, observe chunkObserver) error {
	for i, chunk := range Partition(mappings, chunkSize) {
		callCtx, done := ctx, func(error) {}
		if observe != nil {
			callCtx, done = observe(ctx, i, len(chunk))
		}
		err := engine.BulkInsertMappings(callCtx, tableName, chunk, returnDefaults)
		done(err)
		if err != nil {
			return err
		}
	}
	return nil
}

// ChunkedBulkInserter is ChunkedBulkInsertMappings with its settings bound,
// reporting every chunk to a metrics.LoadRecorder and a metrics.Tracer.
type ChunkedBulkInserter struct {
	chunkSize      int
	returnDefaults bool
	recorder       metrics.LoadRecorder
	tracer         metrics.Tracer
}

// NewChunkedBulkInserter creates a ChunkedBulkInserter. A nil recorder records nothing.
// The chunk size is validated on every Insert.
func NewChunkedBulkInserter(chunkSize int, returnDefaults bool, recorder metrics.LoadRecorder) *ChunkedBulkInserter {
	if recorder == nil {
		recorder = metrics.NewNoOpLoadRecorder()
	}
	return &ChunkedBulkInserter{
		chunkSize:      chunkSize,
		returnDefaults: returnDefaults,
		recorder:       recorder,
		tracer:         metrics.NewNoOpTracer(),
	}
}

// SetTracer makes Insert open one span per chunk. A nil tracer is ignored.
func (c *ChunkedBulkInserter) SetTracer(t metrics.Tracer) {
	if t != nil {
		c.tracer = t
	}
}

// ChunkSize returns the configured chunk size.
func (c *ChunkedBulkInserter) ChunkSize() int { return c.chunkSize }

// ReturnDefaults reports whether generated keys are requested.
func (c *ChunkedBulkInserter) ReturnDefaults() bool { return c.returnDefaults }

// Insert behaves like ChunkedBulkInsertMappings.
func (c *ChunkedBulkInserter) Insert(ctx context.Context, engine tx.BulkInserter, tableName string, mappings []tx.Mapping) error {
	if err := validateChunkSize(c.chunkSize); err != nil {
		return err
	}
	return insertChunks(ctx, engine, tableName, mappings, c.chunkSize, c.returnDefaults, func(ctx context.Context, index, size int) (context.Context, func(error)) {
		spanCtx, end := c.tracer.StartChunkSpan(ctx, tableName, index, size)
		return spanCtx, func(err error) {
			defer end()
			if err != nil {
				c.tracer.RecordError(spanCtx, moduleName, err)
				c.recorder.RecordChunkFailure(spanCtx, tableName)
				return
			}
			c.recorder.RecordChunkInsert(spanCtx, tableName, size)
		}
	})
}
