// Package pipeline runs one extract-load pass of response events into the target database.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	"github.com/tigerroll/surfin-etl/pkg/batch/component/loader"
	"github.com/tigerroll/surfin-etl/pkg/batch/component/migration"
	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/metrics"
	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// Params are the Fx dependencies of NewPipeline.
type Params struct {
	fx.In
	Cfg        *config.Config
	Resolver   database.DBConnectionResolver
	TxFactory  database.TransactionManagerFactory
	Migrators  migration.MigratorProvider
	Recorder   metrics.LoadRecorder `optional:"true"`
	Tracer     metrics.Tracer       `optional:"true"`
	LoadLogger logger.Logger        `optional:"true"`
}

// Pipeline loads a batch of events into the target connection inside one transaction.
type Pipeline struct {
	cfg       *config.Config
	resolver  database.DBConnectionResolver
	txFactory database.TransactionManagerFactory
	migrators migration.MigratorProvider
	opts      []loader.Option
}

// NewPipeline creates a Pipeline.
func NewPipeline(p Params) *Pipeline {
	opts := []loader.Option{loader.WithRecorder(p.Recorder), loader.WithTracer(p.Tracer)}
	if p.LoadLogger != nil {
		opts = append(opts, loader.WithLogger(p.LoadLogger))
	}
	return &Pipeline{
		cfg:       p.Cfg,
		resolver:  p.Resolver,
		txFactory: p.TxFactory,
		migrators: p.Migrators,
		opts:      opts,
	}
}

// Run applies the schema, then loads events and commits.
// Any failure rolls the transaction back and is returned.
func (p *Pipeline) Run(ctx context.Context, events []*entity.ResponseEvent) error {
	target := p.cfg.Surfin.Infrastructure.TargetDBRef
	conn, err := p.resolver.ResolveDBConnection(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to resolve target database '%s': %w", target, err)
	}

	if err := migration.ApplySchema(ctx, p.migrators, conn); err != nil {
		return err
	}

	txManager := p.txFactory.NewTransactionManager(conn)
	t, err := txManager.Begin(ctx)
	if err != nil {
		return err
	}

	if err := p.load(ctx, t, events); err != nil {
		if rbErr := txManager.Rollback(t); rbErr != nil {
			logger.Errorf("Rollback after failed load also failed: %v", rbErr)
		}
		return err
	}
	return txManager.Commit(t)
}

func (p *Pipeline) load(ctx context.Context, t tx.Tx, events []*entity.ResponseEvent) error {
	section := p.cfg.Surfin.Loader
	logger.Debugf("Loading %d events in %s mode (chunk size %d)", len(events), section.Mode, section.ChunkSize)

	switch section.Mode {
	case config.LoaderModeEntity:
		opts := p.opts
		if section.SummaryMessage != "" {
			opts = append(append([]loader.Option{}, opts...), loader.WithSummaryMessage(section.SummaryMessage))
		}
		if err := loader.NewEntityLoader[*entity.ResponseEvent](opts...).Load(ctx, t, events); err != nil {
			return err
		}
	case config.LoaderModeBulk:
		cfg, err := loader.NewBulkLoaderConfig(section)
		if err != nil {
			return err
		}
		if err := loader.NewBulkLoader[*entity.ResponseEvent](cfg, p.opts...).Load(ctx, t, events); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown loader mode %q", section.Mode)
	}
	return t.Flush(ctx)
}

// Module provides the Pipeline.
var Module = fx.Options(
	fx.Provide(NewPipeline),
)
