package operations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbpulse/internal/config"
	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/infrastructure"
	"kbpulse/internal/series"
	"kbpulse/internal/source"
)

func TestPipeline_Run(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Cover":         {{"KB"}},
		"Sale-Weekly":   {{"old layout"}},
		"Sale-Summary":  saleSheet(),
		"Lease-Summary": leaseSheet(),
	}, "Cover", "Sale-Weekly", "Sale-Summary", "Lease-Summary")

	metrics := infrastructure.NewPipelineMetrics()
	p := NewPipeline(testWorkbookConfig(), &fakeSource{data: data}, quietLogger(), WithMetrics(metrics))

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"Cover", "Sale-Weekly", "Sale-Summary", "Lease-Summary"}, result.Sheets)
	assert.Empty(t, result.Failures)

	sale, err := result.Table("sale")
	require.NoError(t, err)
	assert.Equal(t, "Sale-Summary", sale.Sheet)
	assert.Equal(t, []string{"date", "National", "Seoul"}, sale.Columns())
	assert.Len(t, sale.Records, 3)

	lease, err := result.Table("lease")
	require.NoError(t, err)
	assert.Len(t, lease.Records, 2)

	report := result.Reports["sale"]
	require.NotNil(t, report)
	assert.Equal(t, "keyword_and_qualifier", report.SheetRule)
	assert.Len(t, report.ColumnsDropped, 2)
	assert.Equal(t, 1, report.Rows.Undated)
	require.Len(t, report.Steps, 4)
	for _, s := range report.Steps {
		assert.Equal(t, StepStatusCompleted, s.Status)
	}

	n, err := testutil.GatherAndCount(metrics.Registry(), "kbpulse_fetch_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(metrics.Registry(), "kbpulse_columns_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per dropping rule")

	aligned, err := series.Align(sale, lease, "National")
	require.NoError(t, err)
	require.NotNil(t, aligned.Secondary)
	assert.InDelta(t, -1.7, aligned.Primary.Delta.Change, 1e-9)
	assert.InDelta(t, 0.5, aligned.Secondary.Delta.Change, 1e-9)
}

func TestPipeline_LeaseSheetMissing(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Sale-Summary": saleSheet(),
	}, "Sale-Summary")

	p := NewPipeline(testWorkbookConfig(), &fakeSource{data: data}, quietLogger())
	result, err := p.Run(context.Background())
	require.NoError(t, err, "a missing category is not fatal for the run")

	sale, err := result.Table("sale")
	require.NoError(t, err)

	lease, err := result.Table("lease")
	assert.Nil(t, lease)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSheetNotFound))

	var pErr *apperrors.PipelineError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "lease", pErr.Category)

	steps := result.Reports["lease"].Steps
	require.Len(t, steps, 4)
	assert.Equal(t, StepStatusFailed, steps[0].Status)
	for _, s := range steps[1:] {
		assert.Equal(t, StepStatusSkipped, s.Status)
	}

	aligned, err := series.Align(sale, lease, "Seoul")
	require.NoError(t, err)
	assert.Nil(t, aligned.Secondary)
	assert.Len(t, aligned.Primary.Points, 3)
	for _, row := range aligned.Rows {
		assert.Nil(t, row.Secondary)
	}

	assert.Equal(t, []string{"lease", "sale"}, result.Categories())
}

func TestPipeline_HTMLBlockPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html><body>Access denied</body></html>"))
	}))
	defer srv.Close()

	fetcher := source.NewFetcher(config.SourceConfig{URL: srv.URL, Timeout: time.Second}, quietLogger())
	metrics := infrastructure.NewPipelineMetrics()
	p := NewPipeline(testWorkbookConfig(), fetcher, quietLogger(), WithMetrics(metrics))

	result, err := p.Run(context.Background())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrContentMismatch))
	n, err := testutil.GatherAndCount(metrics.Registry(), "kbpulse_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the fetch stage ran")
}

func TestPipeline_FatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      *fakeSource
		names    []string
		wantKind apperrors.Kind
	}{
		{
			name:     "transport failure",
			src:      &fakeSource{errs: []error{apperrors.NewTransportError("connection reset", nil)}},
			wantKind: apperrors.KindTransport,
		},
		{
			name:     "payload is not a workbook",
			src:      &fakeSource{data: []byte("PK\x03\x04garbage")},
			wantKind: apperrors.KindContentMismatch,
		},
		{
			name:     "unknown category",
			src:      &fakeSource{},
			names:    []string{"rent"},
			wantKind: apperrors.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(testWorkbookConfig(), tt.src, quietLogger())
			result, err := p.Run(context.Background(), tt.names...)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
		})
	}
}

func TestPipeline_RunSelectedCategory(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Sale-Summary": saleSheet(),
	}, "Sale-Summary")

	p := NewPipeline(testWorkbookConfig(), &fakeSource{data: data}, quietLogger())
	result, err := p.Run(context.Background(), "sale")
	require.NoError(t, err)

	assert.Equal(t, []string{"sale"}, result.Categories())
	_, err = result.Table("lease")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestPipeline_RunIDFromContext(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Sale-Summary": saleSheet(),
	}, "Sale-Summary")

	p := NewPipeline(testWorkbookConfig(), &fakeSource{data: data}, quietLogger())
	ctx := infrastructure.WithRunID(context.Background(), "run-fixed")
	result, err := p.Run(ctx, "sale")
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", result.RunID)
}

func TestCategoriesFromConfig(t *testing.T) {
	cfg := testWorkbookConfig()
	cfg.Categories["monthly"] = "Monthly"

	assert.Equal(t, []Category{
		{Name: "sale", Keyword: "Sale"},
		{Name: "lease", Keyword: "Lease"},
		{Name: "monthly", Keyword: "Monthly"},
	}, CategoriesFromConfig(cfg))
}
