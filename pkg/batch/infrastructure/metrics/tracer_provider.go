package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	metrics "github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "eventload"

// newSpanExporter creates the OTLP exporter for cfg.Protocol.
// Neither exporter dials the collector before the first export.
func newSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case config.TracingProtocolGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case "", config.TracingProtocolHTTP:
		opts := []otlptracehttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported tracing protocol %q", cfg.Protocol)
	}
}

// NewTracerProvider returns an SDK provider exporting over OTLP when tracing is enabled,
// and a no-op provider otherwise. The SDK provider is flushed and shut down on stop.
func NewTracerProvider(lc fx.Lifecycle, cfg *config.Config) (trace.TracerProvider, error) {
	tracing := cfg.Surfin.Infrastructure.Tracing
	if !tracing.Enabled {
		return noop.NewTracerProvider(), nil
	}

	exporter, err := newSpanExporter(context.Background(), tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
	logger.Debugf("Tracing enabled: exporting spans over OTLP/%s to '%s'.", protocolName(tracing.Protocol), tracing.Endpoint)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warnf("Failed to shut down tracer provider: %v", err)
				return err
			}
			return nil
		},
	})
	return tp, nil
}

func protocolName(p string) string {
	if p == "" {
		return config.TracingProtocolHTTP
	}
	return p
}

// NewTracer provides the loader tracer.
func NewTracer(tp trace.TracerProvider) metrics.Tracer {
	return NewOpenTelemetryTracer(tp)
}
