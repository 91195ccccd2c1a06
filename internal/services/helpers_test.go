package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"kbpulse/internal/config"
	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/operations"
	"kbpulse/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*n)
}

func saleTable() *domain.CleanedSeriesTable {
	return &domain.CleanedSeriesTable{
		Category: config.CategorySale,
		Sheet:    "매매종합",
		Regions:  []string{"전국", "서울", "강남구", "수원"},
		Records: []domain.Record{
			{Date: day(0), Values: map[string]float64{"전국": 100, "서울": 101, "강남구": 102}},
			{Date: day(1), Values: map[string]float64{"전국": 101.5, "서울": 101.2}},
			{Date: day(2), Values: map[string]float64{"전국": 99.8, "서울": 101.4, "수원": 98}},
		},
	}
}

func leaseTable() *domain.CleanedSeriesTable {
	return &domain.CleanedSeriesTable{
		Category: config.CategoryLease,
		Sheet:    "전세종합",
		Regions:  []string{"전국"},
		Records: []domain.Record{
			{Date: day(1), Values: map[string]float64{"전국": 90}},
			{Date: day(2), Values: map[string]float64{"전국": 90.5}},
		},
	}
}

func fullResult(runID string) *operations.Result {
	return &operations.Result{
		RunID: runID,
		Tables: map[string]*domain.CleanedSeriesTable{
			config.CategorySale:  saleTable(),
			config.CategoryLease: leaseTable(),
		},
		Failures: map[string]error{},
		Reports: map[string]*operations.CategoryReport{
			config.CategorySale:  {Category: config.CategorySale, Sheet: "매매종합"},
			config.CategoryLease: {Category: config.CategoryLease, Sheet: "전세종합"},
		},
	}
}

func saleOnlyResult(runID string) *operations.Result {
	r := fullResult(runID)
	delete(r.Tables, config.CategoryLease)
	r.Reports[config.CategoryLease] = &operations.CategoryReport{Category: config.CategoryLease}
	r.Failures[config.CategoryLease] = apperrors.NewSheetNotFoundError("전세", []string{"매매종합"}).
		WithCategory(config.CategoryLease)
	return r
}

// fakeRunner replays results and errors in order, repeating the last one
type fakeRunner struct {
	mu      sync.Mutex
	results []*operations.Result
	errs    []error
	calls   atomic.Int32
	gate    chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, names ...string) (*operations.Result, error) {
	n := int(f.calls.Add(1)) - 1
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := n
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	var err error
	if len(f.errs) > 0 {
		err = f.errs[min(n, len(f.errs)-1)]
	}
	if err != nil {
		return nil, err
	}
	return f.results[idx], nil
}

func (f *fakeRunner) Calls() int {
	return int(f.calls.Load())
}

type fakeSearcher struct {
	query     string
	headlines []domain.Headline
	err       error
}

func (f *fakeSearcher) Query(region string) string {
	return region + " 부동산"
}

func (f *fakeSearcher) Lookup(ctx context.Context, query string) ([]domain.Headline, error) {
	f.query = query
	return f.headlines, f.err
}

func testServiceConfig() DataServiceConfig {
	return DataServiceConfig{
		PrimaryCategory:   config.CategorySale,
		SecondaryCategory: config.CategoryLease,
		RefreshInterval:   time.Hour,
	}
}

// clock is a settable time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
