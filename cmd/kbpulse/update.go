package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"kbpulse/internal/app"
	"kbpulse/internal/config"
	"kbpulse/internal/exporter"
	"kbpulse/internal/infrastructure"
	"kbpulse/internal/operations"
	"kbpulse/internal/source"
)

type updateOptions struct {
	sinkKind   string
	csvPath    string
	category   string
	weeks      int
	sourceFile string
}

func newUpdateCmd(opts *globalOptions) *cobra.Command {
	uo := &updateOptions{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Relay the latest weeks of a category to the configured sink",
		Long: `update runs the pipeline for one category and overwrites the sink with
its most recent weeks. Transport failures are retried with backoff; each
attempt downloads the workbook again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			uo.apply(cmd, cfg)

			var src source.Source
			if uo.sourceFile != "" {
				src = source.FileSource{Path: uo.sourceFile}
			}

			ctx := cmd.Context()
			var metrics *infrastructure.PipelineMetrics
			if cfg.Telemetry.MetricsEnabled {
				metrics = infrastructure.NewPipelineMetrics()
			}
			pipeline := app.NewPipeline(cfg, src, metrics, logger)

			sink, err := exporter.NewSink(ctx, cfg.Sink, logger)
			if err != nil {
				return err
			}

			category := uo.category
			if category == "" {
				category = cfg.Workbook.PrimaryCategory
			}
			updater := operations.NewUpdater(pipeline, sink,
				operations.RetryConfigFrom(cfg.Retry), category, cfg.Sink.Weeks, logger)

			report, err := updater.Run(ctx)
			if err != nil {
				return fmt.Errorf("update failed after %d attempt(s): %w", report.Attempts, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&uo.sinkKind, "sink", "", "Sink kind: sheets or csv (overrides config)")
	cmd.Flags().StringVar(&uo.csvPath, "csv-path", "", "CSV output path (overrides config)")
	cmd.Flags().StringVar(&uo.category, "category", "", "Category to relay (default: primary category)")
	cmd.Flags().IntVar(&uo.weeks, "weeks", 0, "Number of recent weeks to relay (overrides config)")
	cmd.Flags().StringVar(&uo.sourceFile, "source-file", "", "Read the workbook from a local file instead of downloading it")
	return cmd
}

func (uo *updateOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("sink") {
		cfg.Sink.Kind = uo.sinkKind
	}
	if cmd.Flags().Changed("csv-path") {
		cfg.Sink.CSVPath = uo.csvPath
	}
	if cmd.Flags().Changed("weeks") && uo.weeks > 0 {
		cfg.Sink.Weeks = uo.weeks
	}
}
