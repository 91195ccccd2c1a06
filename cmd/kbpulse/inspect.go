package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"kbpulse/internal/app"
	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/infrastructure"
	"kbpulse/internal/series"
	"kbpulse/internal/source"
)

// categorySummary is one line of the inspect report
type categorySummary struct {
	Category string    `json:"category"`
	Sheet    string    `json:"sheet,omitempty"`
	Regions  int       `json:"regions"`
	Rows     int       `json:"rows"`
	From     time.Time `json:"from,omitempty"`
	To       time.Time `json:"to,omitempty"`
	Error    string    `json:"error,omitempty"`
	Kind     string    `json:"kind,omitempty"`
}

type inspectReport struct {
	RunID      string            `json:"run_id"`
	Sheets     []string          `json:"sheets"`
	Categories []categorySummary `json:"categories"`
}

func newInspectCmd(opts *globalOptions) *cobra.Command {
	var (
		category string
		weeks    int
	)

	cmd := &cobra.Command{
		Use:   "inspect <workbook.xlsx>",
		Short: "Run the pipeline on a local workbook and report what it finds",
		Long: `inspect runs every configured category against a local workbook and prints
a JSON summary. With --category it prints that category's cleaned grid as CSV.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// stdout carries the report, so logs go to stderr
			logger := slog.New(infrastructure.NewTraceHandler(
				slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))

			pipeline := app.NewPipeline(cfg, source.FileSource{Path: args[0]}, nil, logger)

			if category != "" {
				result, err := pipeline.Run(cmd.Context(), category)
				if err != nil {
					return err
				}
				table, err := result.Table(category)
				if err != nil {
					return err
				}
				w := csv.NewWriter(cmd.OutOrStdout())
				if err := w.WriteAll(series.Grid(table, weeks)); err != nil {
					return fmt.Errorf("failed to write grid: %w", err)
				}
				return nil
			}

			result, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}

			report := inspectReport{RunID: result.RunID, Sheets: result.Sheets}
			names := result.Categories()
			sort.Strings(names)
			for _, name := range names {
				sum := categorySummary{Category: name}
				if rep, ok := result.Reports[name]; ok {
					sum.Sheet = rep.Sheet
				}
				table, err := result.Table(name)
				if err != nil {
					sum.Error = err.Error()
					sum.Kind = string(apperrors.KindOf(err))
				} else {
					sum.Regions = len(table.Regions)
					sum.Rows = len(table.Records)
					sum.From, sum.To = table.DateRange()
				}
				report.Categories = append(report.Categories, sum)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Print this category's cleaned grid as CSV")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "Limit the grid to the most recent weeks (0: all)")
	return cmd
}
