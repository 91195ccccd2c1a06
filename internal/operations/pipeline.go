package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kbpulse/internal/config"
	"kbpulse/internal/dataprocessing"
	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/infrastructure"
	"kbpulse/internal/source"
	"kbpulse/pkg/contracts/domain"
)

// Pipeline runs fetch once and the category steps for each category
type Pipeline struct {
	source     source.Source
	categories []Category
	steps      []Step
	logger     *slog.Logger
	metrics    *infrastructure.PipelineMetrics
	tracer     *PipelineTracer
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithMetrics records stage timings and drop counts
func WithMetrics(m *infrastructure.PipelineMetrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer replaces the default tracer
func WithTracer(t *PipelineTracer) PipelineOption {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// CategoriesFromConfig lists the configured categories, primary first
func CategoriesFromConfig(cfg config.WorkbookConfig) []Category {
	names := cfg.CategoryNames()
	out := make([]Category, 0, len(names))
	for _, name := range names {
		out = append(out, Category{Name: name, Keyword: cfg.Categories[name]})
	}
	return out
}

// NewPipeline builds the default step chain from the workbook configuration
func NewPipeline(cfg config.WorkbookConfig, src source.Source, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "pipeline"))

	p := &Pipeline{
		source:     src,
		categories: CategoriesFromConfig(cfg),
		steps: []Step{
			&resolveStep{resolver: dataprocessing.NewSheetResolver(cfg.SummaryQualifier)},
			&extractStep{extractor: dataprocessing.NewTableExtractor(cfg.HeaderRow)},
			&sanitizeStep{sanitizer: dataprocessing.NewColumnSanitizer(), logger: logger},
			&normalizeStep{normalizer: dataprocessing.NewDateNormalizer(logger)},
		},
		logger: logger,
		tracer: NewPipelineTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Categories returns the configured categories
func (p *Pipeline) Categories() []Category {
	return append([]Category(nil), p.categories...)
}

// Run fetches the workbook and processes the named categories, or all of
// them when none are named. The returned error is set only when nothing
// could be processed: a bad category name, or a fetch or open failure.
func (p *Pipeline) Run(ctx context.Context, names ...string) (*Result, error) {
	cats, err := p.selectCategories(names)
	if err != nil {
		return nil, err
	}

	ctx, runID := infrastructure.EnsureRunID(ctx)
	ctx, span := p.tracer.TraceRun(ctx, runID, categoryNames(cats))
	var runErr error
	defer func() { EndSpan(span, runErr) }()

	start := time.Now()
	data, runErr := p.source.Fetch(ctx)
	p.metrics.ObserveStage("fetch", "", time.Since(start).Seconds())
	if runErr != nil {
		p.metrics.ObserveFetch(string(apperrors.KindOf(runErr)))
		p.logger.ErrorContext(ctx, "Workbook fetch failed", slog.String("error", runErr.Error()))
		return nil, runErr
	}
	p.metrics.ObserveFetch("ok")

	wb, runErr := dataprocessing.OpenWorkbook(data)
	if runErr != nil {
		p.logger.ErrorContext(ctx, "Workbook could not be opened", slog.String("error", runErr.Error()))
		return nil, runErr
	}
	defer wb.Close()

	result, runErr := p.runWorkbook(ctx, runID, wb, cats)
	return result, runErr
}

// RunWorkbook processes the named categories of an already opened workbook
func (p *Pipeline) RunWorkbook(ctx context.Context, wb *dataprocessing.RawWorkbook, names ...string) (*Result, error) {
	cats, err := p.selectCategories(names)
	if err != nil {
		return nil, err
	}
	ctx, runID := infrastructure.EnsureRunID(ctx)
	return p.runWorkbook(ctx, runID, wb, cats)
}

func (p *Pipeline) runWorkbook(ctx context.Context, runID string, wb *dataprocessing.RawWorkbook, cats []Category) (*Result, error) {
	result := newResult(runID)
	result.Sheets = wb.SheetNames()

	p.logger.InfoContext(ctx, "Pipeline run started",
		slog.Int("categories", len(cats)),
		slog.Int("sheets", len(result.Sheets)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range cats {
		cat := cat
		g.Go(func() error {
			table, report, err := p.RunCategory(gctx, wb, cat)
			mu.Lock()
			defer mu.Unlock()
			result.Reports[cat.Name] = report
			if err != nil {
				result.Failures[cat.Name] = err
				return nil
			}
			result.Tables[cat.Name] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTransportError("pipeline run cancelled", err)
	}

	result.FinishedAt = time.Now()
	p.logger.InfoContext(ctx, "Pipeline run finished",
		slog.Int("succeeded", len(result.Tables)),
		slog.Int("failed", len(result.Failures)),
		slog.Duration("duration", result.Duration()))
	return result, nil
}

// RunCategory runs every step for one category. The report is returned
// even on failure so callers can see which step stopped.
func (p *Pipeline) RunCategory(ctx context.Context, wb *dataprocessing.RawWorkbook, cat Category) (*domain.CleanedSeriesTable, *CategoryReport, error) {
	state := &CategoryState{
		Category: cat,
		Workbook: wb,
		Report:   &CategoryReport{Category: cat.Name},
	}
	logger := p.logger.With(slog.String("category", cat.Name))

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.skipRemaining(state, i)
			return nil, state.Report, apperrors.NewTransportError("category run cancelled", err).WithCategory(cat.Name)
		}

		stepCtx, span := p.tracer.TraceStep(ctx, step.ID(), cat.Name)
		start := time.Now()
		err := step.Execute(stepCtx, state)
		elapsed := time.Since(start)
		EndSpan(span, err)
		p.metrics.ObserveStage(step.ID(), cat.Name, elapsed.Seconds())

		res := StepResult{ID: step.ID(), Status: StepStatusCompleted, Duration: elapsed}
		if err != nil {
			err = tagCategory(err, cat.Name)
			res.Status = StepStatusFailed
			res.Error = err.Error()
			state.Report.Steps = append(state.Report.Steps, res)
			p.skipRemaining(state, i+1)

			logger.WarnContext(ctx, "Category failed",
				slog.String("step", step.ID()),
				slog.String("kind", string(apperrors.KindOf(err))),
				slog.String("error", err.Error()))
			return nil, state.Report, err
		}
		state.Report.Steps = append(state.Report.Steps, res)
	}

	p.recordDrops(state)
	logger.InfoContext(ctx, "Category processed",
		slog.String("sheet", state.Sheet),
		slog.Int("regions", len(state.Table.Regions)),
		slog.Int("records", len(state.Table.Records)),
		slog.Int("rows_dropped", state.Report.Rows.Dropped()),
		slog.Int("columns_dropped", len(state.Report.ColumnsDropped)))
	return state.Table, state.Report, nil
}

func (p *Pipeline) skipRemaining(state *CategoryState, from int) {
	for _, step := range p.steps[from:] {
		state.Report.Steps = append(state.Report.Steps, StepResult{ID: step.ID(), Status: StepStatusSkipped})
	}
}

func (p *Pipeline) recordDrops(state *CategoryState) {
	byRule := make(map[string]int)
	for _, d := range state.Report.ColumnsDropped {
		byRule[d.Rule]++
	}
	for rule, n := range byRule {
		p.metrics.AddColumnsDropped(state.Category.Name, rule, n)
	}
	p.metrics.AddRowsDropped(state.Category.Name, state.Report.Rows.Dropped())
}

func (p *Pipeline) selectCategories(names []string) ([]Category, error) {
	if len(names) == 0 {
		if len(p.categories) == 0 {
			return nil, apperrors.NewInputError("run", "no categories configured")
		}
		return p.Categories(), nil
	}
	out := make([]Category, 0, len(names))
	for _, name := range names {
		cat, ok := p.category(name)
		if !ok {
			return nil, apperrors.NewInputError("run", fmt.Sprintf("unknown category %q", name)).WithCategory(name)
		}
		out = append(out, cat)
	}
	return out, nil
}

func (p *Pipeline) category(name string) (Category, bool) {
	for _, c := range p.categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

func categoryNames(cats []Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

func tagCategory(err error, category string) error {
	var pErr *apperrors.PipelineError
	if errors.As(err, &pErr) && pErr.Category == "" {
		pErr.Category = category
	}
	return err
}
