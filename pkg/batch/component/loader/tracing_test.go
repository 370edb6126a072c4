package loader

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/test"
)

type spanKey struct{}

// tracerSpy records span boundaries as "start <name>" / "end <name>" lines.
type tracerSpy struct {
	events []string
	errors []error
}

func (s *tracerSpy) start(ctx context.Context, name string) (context.Context, func()) {
	s.events = append(s.events, "start "+name)
	return context.WithValue(ctx, spanKey{}, name), func() { s.events = append(s.events, "end "+name) }
}

func (s *tracerSpy) StartLoadSpan(ctx context.Context, table string, count int) (context.Context, func()) {
	return s.start(ctx, fmt.Sprintf("load %s %d", table, count))
}

func (s *tracerSpy) StartChunkSpan(ctx context.Context, table string, index, size int) (context.Context, func()) {
	return s.start(ctx, fmt.Sprintf("chunk %d/%d", index, size))
}

func (s *tracerSpy) RecordError(ctx context.Context, module string, err error) {
	s.events = append(s.events, fmt.Sprintf("error %s in %v", module, ctx.Value(spanKey{})))
	s.errors = append(s.errors, err)
}

// ctxEngine remembers which span each bulk insert ran under.
type ctxEngine struct {
	test.FakeUnitOfWork
	spans []interface{}
}

func (e *ctxEngine) BulkInsertMappings(ctx context.Context, tableName string, mappings []tx.Mapping, returnDefaults bool) error {
	e.spans = append(e.spans, ctx.Value(spanKey{}))
	return e.FakeUnitOfWork.BulkInsertMappings(ctx, tableName, mappings, returnDefaults)
}

func TestBulkLoader_SpansNestChunksInLoad(t *testing.T) {
	spy := &tracerSpy{}
	engine := &ctxEngine{}
	l := NewBulkLoader[*entity.ResponseEvent](BulkLoaderConfig{ChunkSize: 2, ReturnDefaults: true}, WithTracer(spy), WithLogger(test.NewLogRecorder()))

	require.NoError(t, l.Load(context.Background(), engine, test.NewResponseEvents(3)))

	assert.Equal(t, []string{
		"start load response_events 3",
		"start chunk 0/2", "end chunk 0/2",
		"start chunk 1/1", "end chunk 1/1",
		"end load response_events 3",
	}, spy.events)
	assert.Equal(t, []interface{}{"chunk 0/2", "chunk 1/1"}, engine.spans, "the engine runs under the chunk span")
}

func TestBulkLoader_SpanRecordsEngineError(t *testing.T) {
	spy := &tracerSpy{}
	engine := &ctxEngine{FakeUnitOfWork: test.FakeUnitOfWork{FailOnCall: 2}}
	l := NewBulkLoader[*entity.ResponseEvent](BulkLoaderConfig{ChunkSize: 2, ReturnDefaults: true}, WithTracer(spy), WithLogger(test.NewLogRecorder()))

	err := l.Load(context.Background(), engine, test.NewResponseEvents(4))

	require.ErrorIs(t, err, test.ErrInjected)
	assert.Contains(t, spy.events, "error loader in chunk 1/2")
	assert.Contains(t, spy.events, "error loader in load response_events 4")
	assert.Equal(t, "end load response_events 4", spy.events[len(spy.events)-1])
	for _, recorded := range spy.errors {
		assert.True(t, recorded == test.ErrInjected)
	}
}

func TestEntityLoader_SpanRecordsStagingError(t *testing.T) {
	spy := &tracerSpy{}
	uow := &test.FakeUnitOfWork{StageErr: test.ErrInjected, StageFailAt: 1}
	l := NewEntityLoader[*entity.ResponseEvent](WithTracer(spy), WithLogger(test.NewLogRecorder()))

	require.ErrorIs(t, l.Load(context.Background(), uow, test.NewResponseEvents(2)), test.ErrInjected)
	assert.Equal(t, []string{
		"start load response_events 2",
		"error loader in load response_events 2",
		"end load response_events 2",
	}, spy.events)
}
