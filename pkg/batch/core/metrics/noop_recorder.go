package metrics

import "context"

// NoOpLoadRecorder is a LoadRecorder that does nothing.
// It is the default when metrics are disabled and in tests.
type NoOpLoadRecorder struct{}

// NewNoOpLoadRecorder creates a new instance of NoOpLoadRecorder.
func NewNoOpLoadRecorder() LoadRecorder {
	return &NoOpLoadRecorder{}
}

// RecordChunkInsert does nothing.
func (r *NoOpLoadRecorder) RecordChunkInsert(ctx context.Context, table string, size int) {}

// RecordChunkFailure does nothing.
func (r *NoOpLoadRecorder) RecordChunkFailure(ctx context.Context, table string) {}

// RecordLoad does nothing.
func (r *NoOpLoadRecorder) RecordLoad(ctx context.Context, table string, count int) {}

var _ LoadRecorder = (*NoOpLoadRecorder)(nil)
