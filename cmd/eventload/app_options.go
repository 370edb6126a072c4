package main

import (
	"context"
	"errors"

	"go.uber.org/fx"

	"github.com/tigerroll/surfin-etl/internal/pipeline"
	gormadapter "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm/mysql"
	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/surfin-etl/pkg/batch/component/migration"
	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	inframetrics "github.com/tigerroll/surfin-etl/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

var errPanicked = errors.New("load panicked")

// runResult carries the outcome of the load out of the Fx graph.
type runResult struct {
	err error
}

// startLoad runs the pipeline once the application has started and shuts it down afterwards.
func startLoad(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	p *pipeline.Pipeline,
	source pipeline.Source,
	result *runResult,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in load: %v", r)
						result.err = errPanicked
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				events, err := source.Extract(appCtx)
				if err != nil {
					result.err = err
					return
				}
				logger.Infof("Extracted %d response events", len(events))
				result.err = p.Run(appCtx, events)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// GetApplicationOptions builds the uber-fx options of the eventload application.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, source pipeline.Source, result *runResult) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		source,
		result,
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, inframetrics.Module)
	options = append(options, gormadapter.Module)
	options = append(options, sqlite.Module)
	options = append(options, mysql.Module)
	options = append(options, postgres.Module)
	options = append(options, migration.Module)
	options = append(options, pipeline.Module)
	options = append(options, fx.Invoke(fx.Annotate(startLoad, fx.ParamTags("", "", "", "", "", `name:"appCtx"`))))

	return options
}
