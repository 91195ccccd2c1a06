package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/news"
	"kbpulse/internal/operations"
	"kbpulse/internal/series"
	"kbpulse/internal/taxonomy"
	"kbpulse/pkg/contracts/domain"
)

// Runner executes the pipeline for the named categories, all when none
type Runner interface {
	Run(ctx context.Context, names ...string) (*operations.Result, error)
}

// DataServiceConfig holds the settings DataService needs
type DataServiceConfig struct {
	PrimaryCategory   string
	SecondaryCategory string
	RefreshInterval   time.Duration
}

// DataService serves dashboard queries from an in-memory snapshot
type DataService struct {
	cfg        DataServiceConfig
	runner     Runner
	classifier *taxonomy.Classifier
	news       news.Searcher
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot

	refreshMu sync.Mutex
}

// NewDataService creates a data service. news may be nil, in which case
// headline lookups return an empty list.
func NewDataService(cfg DataServiceConfig, runner Runner, classifier *taxonomy.Classifier, searcher news.Searcher, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = taxonomy.MustNewClassifier(taxonomy.DefaultTaxonomy())
	}

	logger.Info("DataService initialized",
		slog.String("primary_category", cfg.PrimaryCategory),
		slog.String("secondary_category", cfg.SecondaryCategory),
		slog.Duration("refresh_interval", cfg.RefreshInterval))

	return &DataService{
		cfg:        cfg,
		runner:     runner,
		classifier: classifier,
		news:       searcher,
		logger:     logger.With(slog.String("service", "data")),
		now:        time.Now,
	}
}

// Snapshot returns the current snapshot, refreshing it first when missing
// or older than the refresh interval. A failed refresh falls back to the
// previous snapshot when there is one.
func (ds *DataService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := ds.current(); s != nil && !ds.stale(s) {
		return s, nil
	}

	ds.refreshMu.Lock()
	defer ds.refreshMu.Unlock()

	// Another request may have refreshed while we waited
	if s := ds.current(); s != nil && !ds.stale(s) {
		return s, nil
	}

	s, err := ds.refreshLocked(ctx)
	if err != nil {
		if prev := ds.current(); prev != nil {
			ds.logger.WarnContext(ctx, "Refresh failed, serving previous snapshot",
				slog.String("error", err.Error()),
				slog.String("run_id", prev.RunID),
				slog.Duration("age", prev.Age(ds.now())))
			return prev, nil
		}
		return nil, err
	}
	return s, nil
}

// Refresh runs the pipeline now and replaces the snapshot on success.
// It does not queue behind a run already in flight.
func (ds *DataService) Refresh(ctx context.Context) (*Snapshot, error) {
	if !ds.refreshMu.TryLock() {
		return nil, apperrors.ErrRefreshInProgress
	}
	defer ds.refreshMu.Unlock()
	return ds.refreshLocked(ctx)
}

func (ds *DataService) refreshLocked(ctx context.Context) (*Snapshot, error) {
	start := ds.now()
	result, err := ds.runner.Run(ctx)
	if err != nil {
		ds.logger.ErrorContext(ctx, "Pipeline run failed", slog.String("error", err.Error()))
		return nil, err
	}

	// A run without the primary category has nothing to show
	if _, err := result.Table(ds.cfg.PrimaryCategory); err != nil {
		ds.logger.ErrorContext(ctx, "Primary category failed",
			slog.String("category", ds.cfg.PrimaryCategory),
			slog.String("error", err.Error()))
		return nil, err
	}

	s := newSnapshot(result, ds.classifier, ds.now())

	ds.mu.Lock()
	ds.snapshot = s
	ds.mu.Unlock()

	ds.logger.InfoContext(ctx, "Snapshot refreshed",
		slog.String("run_id", s.RunID),
		slog.Int("categories", len(result.Tables)),
		slog.Int("failures", len(result.Failures)),
		slog.Duration("duration", ds.now().Sub(start)))
	return s, nil
}

func (ds *DataService) current() *Snapshot {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.snapshot
}

func (ds *DataService) stale(s *Snapshot) bool {
	return ds.cfg.RefreshInterval > 0 && s.Age(ds.now()) > ds.cfg.RefreshInterval
}

// Categories returns the status of every category in the snapshot
func (ds *DataService) Categories(ctx context.Context) ([]CategoryStatus, error) {
	s, err := ds.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Statuses(), nil
}

// Table returns the cleaned table of a category
func (ds *DataService) Table(ctx context.Context, category string) (*domain.CleanedSeriesTable, error) {
	s, err := ds.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return categoryTable(s, category)
}

// Taxonomy returns the group names in display order
func (ds *DataService) Taxonomy() []string {
	return ds.classifier.Taxonomy().GroupNames()
}

// Members returns the region labels of a category that fall in group.
// An unknown group yields an empty list.
func (ds *DataService) Members(ctx context.Context, category, group string) ([]string, error) {
	s, err := ds.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := categoryTable(s, category); err != nil {
		return nil, err
	}
	return s.Classifications[category].Members(group), nil
}

// Series aligns a region across two categories. Empty category names fall
// back to the configured primary and secondary categories. A failed
// secondary category degrades to a primary-only series.
func (ds *DataService) Series(ctx context.Context, region, primary, secondary string) (*domain.AlignedSeries, error) {
	if primary == "" {
		primary = ds.cfg.PrimaryCategory
	}
	if secondary == "" {
		secondary = ds.cfg.SecondaryCategory
	}

	s, err := ds.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	primaryTable, err := categoryTable(s, primary)
	if err != nil {
		return nil, err
	}

	var secondaryTable *domain.CleanedSeriesTable
	if secondary != "" && secondary != primary {
		secondaryTable, err = categoryTable(s, secondary)
		if err != nil {
			ds.logger.WarnContext(ctx, "Secondary category unavailable, serving primary only",
				slog.String("category", secondary),
				slog.String("error", err.Error()))
			secondaryTable = nil
		}
	}

	return series.Align(primaryTable, secondaryTable, region)
}

// News returns headlines for a region
func (ds *DataService) News(ctx context.Context, region string) ([]domain.Headline, error) {
	if ds.news == nil {
		return []domain.Headline{}, nil
	}
	query := region
	if q, ok := ds.news.(interface{ Query(string) string }); ok {
		query = q.Query(region)
	}
	headlines, err := ds.news.Lookup(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("news lookup for %q: %w", region, err)
	}
	return headlines, nil
}

// Ready reports whether a snapshot is loaded, without triggering a refresh
func (ds *DataService) Ready() (*Snapshot, bool) {
	s := ds.current()
	return s, s != nil
}

// categoryTable looks a category up in the snapshot. A name the run never
// covered is an unknown resource; a covered category that failed returns
// its pipeline error.
func categoryTable(s *Snapshot, category string) (*domain.CleanedSeriesTable, error) {
	if !slices.Contains(s.Result.Categories(), category) {
		return nil, apperrors.NotFoundError("category " + category)
	}
	return s.Result.Table(category)
}
