package metrics

import "context"

// Tracer opens spans around loader work.
//
// Each Start method returns a context carrying the new span and a function that ends it.
// Callers defer the end function.
type Tracer interface {
	// StartLoadSpan starts a span for one loader invocation submitting count entities to table.
	StartLoadSpan(ctx context.Context, table string, count int) (context.Context, func())

	// StartChunkSpan starts a span for the bulk-insert call of chunk index (zero-based) holding size rows.
	StartChunkSpan(ctx context.Context, table string, index, size int) (context.Context, func())

	// RecordError marks the span in ctx as failed.
	// module names the component the error surfaced in (e.g., "loader").
	RecordError(ctx context.Context, module string, err error)
}

// NoOpTracer is a Tracer that records nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return NoOpTracer{}
}

func (NoOpTracer) StartLoadSpan(ctx context.Context, table string, count int) (context.Context, func()) {
	return ctx, func() {}
}

func (NoOpTracer) StartChunkSpan(ctx context.Context, table string, index, size int) (context.Context, func()) {
	return ctx, func() {}
}

func (NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

var _ Tracer = NoOpTracer{}
