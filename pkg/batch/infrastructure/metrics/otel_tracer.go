package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
)

// InstrumentationName identifies the loader spans.
const InstrumentationName = "github.com/tigerroll/surfin-etl/pkg/batch/component/loader"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer drawing spans from tp.
func NewOpenTelemetryTracer(tp trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: tp.Tracer(InstrumentationName)}
}

// StartLoadSpan starts a "loader.load" span.
func (t *OpenTelemetryTracer) StartLoadSpan(ctx context.Context, table string, count int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "loader.load", trace.WithAttributes(
		attribute.String("db.sql.table", table),
		attribute.Int("etl.load.count", count),
	))
	return ctx, func() { span.End() }
}

// StartChunkSpan starts a "loader.chunk" span, normally a child of the load span.
func (t *OpenTelemetryTracer) StartChunkSpan(ctx context.Context, table string, index, size int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "loader.chunk", trace.WithAttributes(
		attribute.String("db.sql.table", table),
		attribute.Int("etl.chunk.index", index),
		attribute.Int("etl.chunk.size", size),
	))
	return ctx, func() { span.End() }
}

// RecordError records err on the span in ctx and sets its status to Error.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("etl.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
