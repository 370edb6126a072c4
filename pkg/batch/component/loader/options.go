package loader

import (
	"github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// DefaultSummaryMessage is the template of the summary record. Its only verb is the entity count.
const DefaultSummaryMessage = "Inserted %d response events into database"

// settings are shared by both loaders.
type settings struct {
	log      logger.Logger
	recorder metrics.LoadRecorder
	tracer   metrics.Tracer
	summary  string
}

func newSettings(opts []Option) settings {
	s := settings{
		recorder: metrics.NewNoOpLoadRecorder(),
		tracer:   metrics.NewNoOpTracer(),
		summary:  DefaultSummaryMessage,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// sink returns the configured Logger, or the global one at call time.
func (s settings) sink() logger.Logger {
	if s.log != nil {
		return s.log
	}
	return logger.Default()
}

// Option configures an EntityLoader or a BulkLoader.
type Option func(*settings)

// WithLogger sets the sink of the summary record.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithSummaryMessage replaces DefaultSummaryMessage. The template must take a single integer.
func WithSummaryMessage(template string) Option {
	return func(s *settings) {
		if template != "" {
			s.summary = template
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.LoadRecorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer that spans each Load call and, on the bulk path, each chunk.
func WithTracer(t metrics.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}
