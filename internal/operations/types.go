package operations

import (
	"sort"
	"time"

	"kbpulse/internal/dataprocessing"
	apperrors "kbpulse/internal/errors"
	"kbpulse/pkg/contracts/domain"
)

// Category names a statistical series and the sheet keyword that finds it
type Category struct {
	Name    string `json:"name"`
	Keyword string `json:"keyword"`
}

// StepStatus represents the outcome of a step
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepResult records one step of one category run
type StepResult struct {
	ID       string        `json:"id"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// CategoryReport describes how a category table was produced
type CategoryReport struct {
	Category       string                         `json:"category"`
	Sheet          string                         `json:"sheet,omitempty"`
	SheetRule      string                         `json:"sheet_rule,omitempty"`
	ColumnsDropped []dataprocessing.DroppedColumn `json:"columns_dropped,omitempty"`
	Rows           dataprocessing.NormalizeStats  `json:"rows"`
	Steps          []StepResult                   `json:"steps"`
}

// Result is the outcome of one pipeline run
type Result struct {
	RunID      string                                `json:"run_id"`
	StartedAt  time.Time                             `json:"started_at"`
	FinishedAt time.Time                             `json:"finished_at"`
	Sheets     []string                              `json:"sheets"`
	Tables     map[string]*domain.CleanedSeriesTable `json:"tables"`
	Failures   map[string]error                      `json:"-"`
	Reports    map[string]*CategoryReport            `json:"reports"`
}

func newResult(runID string) *Result {
	return &Result{
		RunID:     runID,
		StartedAt: time.Now(),
		Tables:    make(map[string]*domain.CleanedSeriesTable),
		Failures:  make(map[string]error),
		Reports:   make(map[string]*CategoryReport),
	}
}

// Table returns a category's table, or the error that category failed with
func (r *Result) Table(category string) (*domain.CleanedSeriesTable, error) {
	if err, failed := r.Failures[category]; failed {
		return nil, err
	}
	t, ok := r.Tables[category]
	if !ok {
		return nil, apperrors.NewInputError("result", "category "+category+" was not part of the run").
			WithCategory(category)
	}
	return t, nil
}

// Categories returns every category of the run, succeeded or failed, sorted
func (r *Result) Categories() []string {
	names := make([]string, 0, len(r.Tables)+len(r.Failures))
	for name := range r.Tables {
		names = append(names, name)
	}
	for name := range r.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Duration is the wall time of the run
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
