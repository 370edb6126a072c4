// Command eventload loads response events into the configured database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/tigerroll/surfin-etl/internal/pipeline"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// embeddedConfig is the application YAML compiled into the binary.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func newRootCommand() *cobra.Command {
	var source pipeline.Source

	cmd := &cobra.Command{
		Use:   "eventload",
		Short: "Load response events into the target database",
		Long: `eventload extracts response events from a parquet file, or generates
synthetic ones, and loads them in one transaction through the configured
loader mode. Settings come from the embedded application.yaml, an optional
.env file (ENV_FILE_PATH) and SURFIN_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), source)
		},
	}
	cmd.Flags().StringVar(&source.Input, "input", "", "parquet file with response events")
	cmd.Flags().IntVar(&source.Count, "count", 100, "number of synthetic events when --input is empty")
	cmd.Flags().IntVar(&source.BatchSize, "batch-size", 0, "parquet rows decoded per read")
	return cmd
}

func run(ctx context.Context, source pipeline.Source) error {
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	result := &runResult{}
	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig, source, result)...)
	if err := fxApp.Err(); err != nil {
		return err
	}

	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	<-fxApp.Done()
	if err := fxApp.Stop(context.Background()); err != nil {
		logger.Errorf("Failed to stop application: %v", err)
	}
	return result.err
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Errorf("eventload failed: %v", err)
		os.Exit(1)
	}
}
