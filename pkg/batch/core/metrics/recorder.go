// Package metrics defines the recorder interface the loaders report chunk and load
// activity through. Backends live in pkg/batch/infrastructure/metrics.
package metrics

import "context"

// LoadRecorder records what the loaders submit to the persistence engine.
//
// Recorders observe successful work and engine failures; they never alter control flow.
type LoadRecorder interface {
	// RecordChunkInsert records one bulk-insert call of size rows into table.
	RecordChunkInsert(ctx context.Context, table string, size int)

	// RecordChunkFailure records a bulk-insert call on table that returned an error.
	RecordChunkFailure(ctx context.Context, table string)

	// RecordLoad records one completed loader invocation that submitted count entities.
	RecordLoad(ctx context.Context, table string, count int)
}
