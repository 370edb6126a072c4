package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metrics "github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
)

// PrometheusLoadRecorder is a Prometheus implementation of metrics.LoadRecorder.
// It owns its registry so several recorders can coexist in one process (and in tests).
type PrometheusLoadRecorder struct {
	registry *prometheus.Registry

	chunkInserts  *prometheus.CounterVec
	chunkRows     *prometheus.CounterVec
	chunkFailures *prometheus.CounterVec
	loaded        *prometheus.CounterVec
}

// NewPrometheusLoadRecorder creates a recorder with a fresh registry.
// Go runtime and process collectors are registered alongside the loader counters.
func NewPrometheusLoadRecorder() *PrometheusLoadRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusLoadRecorder{
		registry: registry,
		chunkInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_chunk_inserts_total",
			Help: "Total bulk-insert calls submitted to the persistence engine.",
		}, []string{"table"}),
		chunkRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_chunk_rows_total",
			Help: "Total rows submitted through bulk-insert calls.",
		}, []string{"table"}),
		chunkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_chunk_failures_total",
			Help: "Total bulk-insert calls that returned an error.",
		}, []string{"table"}),
		loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_loaded_entities_total",
			Help: "Total entities submitted by completed loader invocations.",
		}, []string{"table"}),
	}

	registry.MustRegister(r.chunkInserts)
	registry.MustRegister(r.chunkRows)
	registry.MustRegister(r.chunkFailures)
	registry.MustRegister(r.loaded)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusLoadRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordChunkInsert increments the insert and row counters for table.
func (r *PrometheusLoadRecorder) RecordChunkInsert(ctx context.Context, table string, size int) {
	r.chunkInserts.WithLabelValues(table).Inc()
	r.chunkRows.WithLabelValues(table).Add(float64(size))
}

// RecordChunkFailure increments the failure counter for table.
func (r *PrometheusLoadRecorder) RecordChunkFailure(ctx context.Context, table string) {
	r.chunkFailures.WithLabelValues(table).Inc()
}

// RecordLoad adds count to the loaded-entities counter for table.
func (r *PrometheusLoadRecorder) RecordLoad(ctx context.Context, table string, count int) {
	r.loaded.WithLabelValues(table).Add(float64(count))
}

var _ metrics.LoadRecorder = (*PrometheusLoadRecorder)(nil)
