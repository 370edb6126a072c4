package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
	"github.com/tigerroll/surfin-etl/pkg/batch/test"
)

func assertSingleSummary(t *testing.T, rec *test.LogRecorder, count int) {
	t.Helper()
	entries := rec.Entries()
	require.Len(t, entries, 1, "exactly one record per Load")
	assert.Equal(t, logger.LevelInfo, entries[0].Level)
	assert.Equal(t, DefaultSummaryMessage, entries[0].Format)
	assert.Equal(t, []interface{}{count}, entries[0].Args)
	assert.Equal(t, fmt.Sprintf("Inserted %d response events into database", count), entries[0].Message())
}

func TestEntityLoader_SummaryRecord(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			rec := test.NewLogRecorder()
			uow := &test.FakeUnitOfWork{}
			l := NewEntityLoader[*entity.ResponseEvent](WithLogger(rec))

			require.NoError(t, l.Load(context.Background(), uow, test.NewResponseEvents(n)))

			assertSingleSummary(t, rec, n)
			assert.Len(t, uow.Staged, n)
			assert.Zero(t, uow.FlushCalls, "the loader must not flush")
			assert.Zero(t, uow.Calls(), "the entity path does not bulk insert")
		})
	}
}

func TestEntityLoader_StagesInOrder(t *testing.T) {
	ctx := context.Background()
	events := test.NewResponseEvents(3)
	uow := new(test.MockUnitOfWork)
	for _, e := range events {
		uow.On("Stage", ctx, e).Return(nil).Once()
	}

	l := NewEntityLoader[*entity.ResponseEvent](WithLogger(test.NewLogRecorder()))
	require.NoError(t, l.Load(ctx, uow, events))

	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Flush", mock.Anything)
	for i, call := range uow.Calls {
		assert.Same(t, events[i], call.Arguments.Get(1))
	}
}

func TestEntityLoader_StagingFailure(t *testing.T) {
	stageErr := errors.New("session is closed")
	rec := test.NewLogRecorder()
	uow := &test.FakeUnitOfWork{StageErr: stageErr, StageFailAt: 2}
	spy := &recorderSpy{}
	l := NewEntityLoader[*entity.ResponseEvent](WithLogger(rec), WithRecorder(spy))

	err := l.Load(context.Background(), uow, test.NewResponseEvents(5))

	assert.True(t, err == stageErr, "staging error must be returned unchanged, got %v", err)
	assert.Empty(t, rec.Entries(), "no summary after a failed staging")
	assert.Empty(t, spy.loads)
	assert.Len(t, uow.Staged, 2)
}

func TestEntityLoader_CustomSummaryAndRecorder(t *testing.T) {
	rec := test.NewLogRecorder()
	spy := &recorderSpy{}
	l := NewEntityLoader[*entity.ResponseEvent](
		WithLogger(rec),
		WithRecorder(spy),
		WithSummaryMessage("Staged %d events"),
	)

	require.NoError(t, l.Load(context.Background(), &test.FakeUnitOfWork{}, test.NewResponseEvents(4)))

	require.Len(t, rec.Entries(), 1)
	assert.Equal(t, "Staged 4 events", rec.Entries()[0].Message())
	assert.Equal(t, []int{4}, spy.loads)
}
