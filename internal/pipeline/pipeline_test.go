package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	gormadapter "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/surfin-etl/pkg/batch/component/loader"
	"github.com/tigerroll/surfin-etl/pkg/batch/component/migration"
	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
	"github.com/tigerroll/surfin-etl/pkg/batch/test"
)

type harness struct {
	cfg      *config.Config
	resolver *gormadapter.GormDBConnectionResolver
	logs     *test.LogRecorder
	pipeline *Pipeline
}

func newHarness(t *testing.T, mode config.LoaderMode, chunkSize int) *harness {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Surfin.Loader.Mode = mode
	cfg.Surfin.Loader.ChunkSize = chunkSize
	cfg.Surfin.AdapterConfigs["workload"] = map[string]interface{}{
		"type":     "sqlite",
		"database": filepath.Join(t.TempDir(), "pipeline.db"),
	}

	provider := sqlite.NewProvider(cfg)
	t.Cleanup(func() { _ = provider.CloseAll() })
	resolver := gormadapter.NewGormDBConnectionResolver(gormadapter.ResolverParams{
		DBProviders: []database.DBProvider{provider},
		Cfg:         cfg,
	})

	logs := test.NewLogRecorder()
	return &harness{
		cfg:      cfg,
		resolver: resolver,
		logs:     logs,
		pipeline: NewPipeline(Params{
			Cfg:        cfg,
			Resolver:   resolver,
			TxFactory:  gormadapter.NewTransactionManagerFactoryProvider(resolver, cfg),
			Migrators:  migration.NewMigratorProvider(),
			LoadLogger: logs,
		}),
	}
}

func (h *harness) stored(t *testing.T) []entity.ResponseEvent {
	t.Helper()
	conn, err := h.resolver.ResolveDBConnection(context.Background(), "workload")
	require.NoError(t, err)
	var rows []entity.ResponseEvent
	require.NoError(t, conn.ExecuteQueryAdvanced(context.Background(), &rows, nil, "id", 0))
	return rows
}

func TestPipeline_BulkMode(t *testing.T) {
	h := newHarness(t, config.LoaderModeBulk, 10)
	events := test.NewResponseEvents(25)

	require.NoError(t, h.pipeline.Run(context.Background(), events))

	rows := h.stored(t)
	require.Len(t, rows, 25)
	for i, row := range rows {
		assert.Equal(t, events[i].ID, row.ID, "generated keys follow input order")
		assert.Equal(t, events[i].Answer, row.Answer)
	}

	summaries := h.logs.AtLevel(logger.LevelInfo)
	require.Len(t, summaries, 1)
	assert.Equal(t, loader.DefaultSummaryMessage, summaries[0].Format)
	assert.Equal(t, []interface{}{25}, summaries[0].Args)
}

func TestPipeline_EntityMode(t *testing.T) {
	h := newHarness(t, config.LoaderModeEntity, 10)
	h.cfg.Surfin.Loader.SummaryMessage = "Staged %d response events"
	events := test.NewResponseEvents(4)

	require.NoError(t, h.pipeline.Run(context.Background(), events))

	rows := h.stored(t)
	require.Len(t, rows, 4)
	for i, e := range events {
		assert.NotZero(t, e.ID)
		assert.Equal(t, e.ID, rows[i].ID)
	}
	require.Len(t, h.logs.Entries(), 1)
	assert.Equal(t, "Staged 4 response events", h.logs.Entries()[0].Message())
}

func TestPipeline_FailureRollsBack(t *testing.T) {
	h := newHarness(t, config.LoaderModeBulk, 5)
	events := test.NewResponseEvents(10)
	events[1].ID = 100
	events[7].ID = 100

	err := h.pipeline.Run(context.Background(), events)

	require.Error(t, err)
	assert.Empty(t, h.stored(t), "the first chunk is rolled back with the transaction")
	assert.Empty(t, h.logs.Entries())
}

func TestPipeline_EmptyBatch(t *testing.T) {
	h := newHarness(t, config.LoaderModeBulk, 10)

	require.NoError(t, h.pipeline.Run(context.Background(), nil))

	assert.Empty(t, h.stored(t))
	require.Len(t, h.logs.Entries(), 1)
	assert.Equal(t, []interface{}{0}, h.logs.Entries()[0].Args)
}

func TestSource_Extract(t *testing.T) {
	events, err := Source{Count: 3}.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 3)

	_, err = Source{Count: -1}.Extract(context.Background())
	assert.Error(t, err)

	_, err = Source{Input: filepath.Join(t.TempDir(), "absent.parquet")}.Extract(context.Background())
	assert.Error(t, err)
}

func TestSyntheticEvents(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	events := SyntheticEvents(12, start)

	require.Len(t, events, 12)
	assert.Equal(t, "q1", events[10].QuestionID)
	assert.Equal(t, start.Add(11*time.Second), events[11].OccurredAt)
	assert.NotEqual(t, events[0].RespondentID, events[1].RespondentID)
}
