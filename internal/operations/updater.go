package operations

import (
	"context"
	"log/slog"
	"time"

	"kbpulse/internal/infrastructure"
	"kbpulse/internal/series"
)

// GridSink receives the rendered grid and replaces its contents with it
type GridSink interface {
	Name() string
	Overwrite(ctx context.Context, grid [][]string) error
}

// UpdateReport summarizes one relay run
type UpdateReport struct {
	RunID     string        `json:"run_id"`
	Category  string        `json:"category"`
	Sheet     string        `json:"sheet"`
	Sink      string        `json:"sink"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	Attempts  int           `json:"attempts"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Updater relays the latest weeks of one category to a sink
type Updater struct {
	pipeline *Pipeline
	sink     GridSink
	retry    RetryConfig
	category string
	weeks    int
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics
}

// NewUpdater creates the relay job
func NewUpdater(p *Pipeline, sink GridSink, retry RetryConfig, category string, weeks int, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		pipeline: p,
		sink:     sink,
		retry:    retry,
		category: category,
		weeks:    weeks,
		logger:   logger.With(slog.String("component", "updater")),
		metrics:  p.metrics,
	}
}

// Run executes one relay. Each attempt is a full pipeline run followed by a
// sink overwrite; only retryable failures start another attempt.
func (u *Updater) Run(ctx context.Context) (*UpdateReport, error) {
	ctx, runID := infrastructure.EnsureRunID(ctx)
	report := &UpdateReport{
		RunID:     runID,
		Category:  u.category,
		Sink:      u.sink.Name(),
		StartedAt: time.Now(),
	}

	u.logger.InfoContext(ctx, "Relay started",
		slog.String("category", u.category),
		slog.String("sink", report.Sink),
		slog.Int("weeks", u.weeks))

	attempts, err := Retry(ctx, u.retry, u.logger, func(ctx context.Context, attempt int) error {
		return u.attempt(ctx, report)
	})
	report.Attempts = attempts
	report.Duration = time.Since(report.StartedAt)

	if err != nil {
		u.logger.ErrorContext(ctx, "Relay failed",
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()))
		return report, err
	}

	u.logger.InfoContext(ctx, "Relay finished",
		slog.String("sheet", report.Sheet),
		slog.Int("rows", report.Rows),
		slog.Int("attempts", attempts),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (u *Updater) attempt(ctx context.Context, report *UpdateReport) error {
	result, err := u.pipeline.Run(ctx, u.category)
	if err != nil {
		return err
	}
	table, err := result.Table(u.category)
	if err != nil {
		return err
	}

	grid := series.Grid(table, u.weeks)
	if err := u.sink.Overwrite(ctx, grid); err != nil {
		u.metrics.ObserveSinkWrite(u.sink.Name(), "error")
		return err
	}
	u.metrics.ObserveSinkWrite(u.sink.Name(), "ok")

	report.Sheet = table.Sheet
	report.Rows = len(grid) - 1
	report.Columns = len(grid[0])
	return nil
}
