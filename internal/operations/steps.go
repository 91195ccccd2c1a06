package operations

import (
	"context"
	"log/slog"

	"kbpulse/internal/dataprocessing"
	"kbpulse/pkg/contracts/domain"
)

// Step IDs
const (
	StepResolve   = "resolve"
	StepExtract   = "extract"
	StepSanitize  = "sanitize"
	StepNormalize = "normalize"
)

// CategoryState carries one category through its steps
type CategoryState struct {
	Category Category
	Workbook *dataprocessing.RawWorkbook
	Sheet    string
	Raw      *domain.SheetTable
	Clean    *domain.SheetTable
	Table    *domain.CleanedSeriesTable
	Report   *CategoryReport
}

// Step represents a single step of a category run
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step against the category state
	Execute(ctx context.Context, state *CategoryState) error
}

type resolveStep struct {
	resolver *dataprocessing.SheetResolver
}

func (s *resolveStep) ID() string   { return StepResolve }
func (s *resolveStep) Name() string { return "Sheet Resolver" }

func (s *resolveStep) Execute(ctx context.Context, state *CategoryState) error {
	sheet, err := s.resolver.Resolve(state.Workbook.SheetNames(), state.Category.Keyword)
	if err != nil {
		return err
	}
	state.Sheet = sheet
	state.Report.Sheet = sheet
	state.Report.SheetRule = s.resolver.RuleFor(sheet, state.Category.Keyword)
	return nil
}

type extractStep struct {
	extractor *dataprocessing.TableExtractor
}

func (s *extractStep) ID() string   { return StepExtract }
func (s *extractStep) Name() string { return "Table Extractor" }

func (s *extractStep) Execute(ctx context.Context, state *CategoryState) error {
	raw, err := s.extractor.Extract(state.Workbook, state.Sheet)
	if err != nil {
		return err
	}
	state.Raw = raw
	return nil
}

type sanitizeStep struct {
	sanitizer *dataprocessing.ColumnSanitizer
	logger    *slog.Logger
}

func (s *sanitizeStep) ID() string   { return StepSanitize }
func (s *sanitizeStep) Name() string { return "Column Sanitizer" }

func (s *sanitizeStep) Execute(ctx context.Context, state *CategoryState) error {
	clean, dropped := s.sanitizer.Sanitize(state.Raw)
	for _, d := range dropped {
		s.logger.DebugContext(ctx, "Column dropped",
			slog.String("category", state.Category.Name),
			slog.String("label", d.Label),
			slog.String("rule", d.Rule))
	}
	state.Clean = clean
	state.Report.ColumnsDropped = dropped
	return nil
}

type normalizeStep struct {
	normalizer *dataprocessing.DateNormalizer
}

func (s *normalizeStep) ID() string   { return StepNormalize }
func (s *normalizeStep) Name() string { return "Date Normalizer" }

func (s *normalizeStep) Execute(ctx context.Context, state *CategoryState) error {
	table, stats, err := s.normalizer.Normalize(state.Category.Name, state.Clean)
	state.Report.Rows = stats
	if err != nil {
		return err
	}
	state.Table = table
	return nil
}
