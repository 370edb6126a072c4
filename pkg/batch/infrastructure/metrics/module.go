package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	metrics "github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// NewLoadRecorder returns a PrometheusLoadRecorder when metrics are enabled and the no-op recorder otherwise.
func NewLoadRecorder(cfg *config.Config) metrics.LoadRecorder {
	if cfg.Surfin.Infrastructure.MetricsEnabled {
		return NewPrometheusLoadRecorder()
	}
	return metrics.NewNoOpLoadRecorder()
}

// WriteTextfile writes the recorder's registry to path in the Prometheus text format.
// The file is replaced atomically, as the node_exporter textfile collector expects.
func (r *PrometheusLoadRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// registerTextfileHook dumps the metrics when the application stops.
func registerTextfileHook(lc fx.Lifecycle, cfg *config.Config, recorder metrics.LoadRecorder) {
	path := cfg.Surfin.Infrastructure.MetricsTextfile
	prom, ok := recorder.(*PrometheusLoadRecorder)
	if !ok || path == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := prom.WriteTextfile(path); err != nil {
				logger.Errorf("Failed to write metrics to %s: %v", path, err)
				return err
			}
			logger.Infof("Metrics written to %s", path)
			return nil
		},
	})
}

// Module provides the configured metrics.LoadRecorder and metrics.Tracer.
var Module = fx.Options(
	fx.Provide(NewLoadRecorder),
	fx.Provide(NewTracerProvider),
	fx.Provide(NewTracer),
	fx.Invoke(registerTextfileHook),
)
