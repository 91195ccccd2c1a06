package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbpulse/internal/config"
	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/operations"
	"kbpulse/internal/series"
	"kbpulse/internal/shared/testutil"
	"kbpulse/internal/taxonomy"
	"kbpulse/pkg/contracts/domain"
)

func newTestService(runner Runner, searcher *fakeSearcher) (*DataService, *clock) {
	var s *DataService
	if searcher != nil {
		s = NewDataService(testServiceConfig(), runner, nil, searcher, quietLogger())
	} else {
		s = NewDataService(testServiceConfig(), runner, nil, nil, quietLogger())
	}
	c := newClock()
	s.now = c.Now
	return s, c
}

func TestDataService_SnapshotCachedUntilStale(t *testing.T) {
	runner := &fakeRunner{results: []*operations.Result{fullResult("run-1"), fullResult("run-2")}}
	ds, clk := newTestService(runner, nil)
	ctx := context.Background()

	s1, err := ds.Snapshot(ctx)
	require.NoError(t, err)
	s2, err := ds.Snapshot(ctx)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, runner.Calls())

	clk.Advance(2 * time.Hour)
	s3, err := ds.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", s3.RunID)
	assert.Equal(t, 2, runner.Calls())
}

func TestDataService_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	runner := &fakeRunner{
		results: []*operations.Result{fullResult("run-1")},
		errs:    []error{nil, apperrors.NewTransportError("upstream down", nil)},
	}
	ds, clk := newTestService(runner, nil)
	ctx := context.Background()

	_, err := ds.Snapshot(ctx)
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	s, err := ds.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", s.RunID)

	_, err = ds.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.True(t, apperrors.IsRetryable(err))

	s, err = ds.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 4, runner.Calls())
}

func TestDataService_FallbackIsLogged(t *testing.T) {
	runner := &fakeRunner{
		results: []*operations.Result{fullResult("run-1")},
		errs:    []error{nil, apperrors.NewTransportError("upstream down", nil)},
	}
	logger, rec := testutil.NewTestLogger(t)
	ds := NewDataService(testServiceConfig(), runner, nil, nil, logger)
	clk := newClock()
	ds.now = clk.Now

	_, err := ds.Snapshot(context.Background())
	require.NoError(t, err)
	testutil.AssertNoErrors(t, rec)

	clk.Advance(2 * time.Hour)
	_, err = ds.Snapshot(context.Background())
	require.NoError(t, err)

	r := testutil.AssertLogged(t, rec, slog.LevelWarn, "Refresh failed, serving previous snapshot")
	assert.Equal(t, "run-1", r.Attrs["run_id"])
	assert.Equal(t, "data", r.Attrs["service"])
}

func TestDataService_NoSnapshotPropagatesError(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr error
	}{
		{
			name:    "content mismatch",
			runner:  &fakeRunner{results: []*operations.Result{nil}, errs: []error{apperrors.NewContentMismatchError("html")}},
			wantErr: apperrors.ErrContentMismatch,
		},
		{
			name: "primary category missing",
			runner: &fakeRunner{results: []*operations.Result{func() *operations.Result {
				r := fullResult("run-x")
				delete(r.Tables, config.CategorySale)
				r.Failures[config.CategorySale] = apperrors.NewSheetNotFoundError("매매", nil)
				return r
			}()}},
			wantErr: apperrors.ErrSheetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, _ := newTestService(tt.runner, nil)
			_, err := ds.Categories(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)

			_, ready := ds.Ready()
			assert.False(t, ready)
		})
	}
}

func TestDataService_ConcurrentRequestsShareOneRun(t *testing.T) {
	runner := &fakeRunner{results: []*operations.Result{fullResult("run-1")}, gate: make(chan struct{})}
	ds, _ := newTestService(runner, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ds.Snapshot(context.Background())
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return runner.Calls() == 1 }, time.Second, 5*time.Millisecond)
	close(runner.gate)
	wg.Wait()

	assert.Equal(t, 1, runner.Calls())
}

func TestDataService_RefreshWhileRunning(t *testing.T) {
	runner := &fakeRunner{results: []*operations.Result{fullResult("run-1")}, gate: make(chan struct{})}
	ds, _ := newTestService(runner, nil)

	done := make(chan error, 1)
	go func() {
		_, err := ds.Refresh(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return runner.Calls() == 1 }, time.Second, 5*time.Millisecond)

	_, err := ds.Refresh(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrRefreshInProgress)

	close(runner.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, runner.Calls())
}

func TestDataService_Categories(t *testing.T) {
	ds, _ := newTestService(&fakeRunner{results: []*operations.Result{saleOnlyResult("run-1")}}, nil)

	statuses, err := ds.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	lease, sale := statuses[0], statuses[1]
	assert.Equal(t, config.CategoryLease, lease.Name)
	assert.Equal(t, CategoryStatusError, lease.Status)
	assert.Equal(t, string(apperrors.KindSheetNotFound), lease.ErrorKind)

	assert.Equal(t, config.CategorySale, sale.Name)
	assert.Equal(t, CategoryStatusOK, sale.Status)
	assert.Equal(t, "매매종합", sale.Sheet)
	assert.Equal(t, 4, sale.Regions)
	assert.Equal(t, 3, sale.Rows)
	assert.Equal(t, day(0), sale.DateFrom)
	assert.Equal(t, day(2), sale.DateTo)
}

func TestDataService_TableAndMembers(t *testing.T) {
	ds, _ := newTestService(&fakeRunner{results: []*operations.Result{saleOnlyResult("run-1")}}, nil)
	ctx := context.Background()

	table, err := ds.Table(ctx, config.CategorySale)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "전국", "서울", "강남구", "수원"}, table.Columns())

	_, err = ds.Table(ctx, config.CategoryLease)
	assert.ErrorIs(t, err, apperrors.ErrSheetNotFound)

	members, err := ds.Members(ctx, config.CategorySale, taxonomy.GroupSeoulGu)
	require.NoError(t, err)
	assert.Equal(t, []string{"강남구"}, members)

	members, err = ds.Members(ctx, config.CategorySale, "없는 그룹")
	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Empty(t, members)

	_, err = ds.Members(ctx, "rent", taxonomy.GroupNation)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDataService_UnknownCategory(t *testing.T) {
	ds, _ := newTestService(&fakeRunner{results: []*operations.Result{saleOnlyResult("run-1")}}, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() error
		wantCode int
		wantKind error
	}{
		{
			name:     "table of unconfigured category",
			call:     func() error { _, err := ds.Table(ctx, "rent"); return err },
			wantCode: http.StatusNotFound,
		},
		{
			name:     "series with unconfigured primary",
			call:     func() error { _, err := ds.Series(ctx, "전국", "rent", ""); return err },
			wantCode: http.StatusNotFound,
		},
		{
			name:     "failed category keeps its pipeline error",
			call:     func() error { _, err := ds.Table(ctx, config.CategoryLease); return err },
			wantKind: apperrors.ErrSheetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			var apiErr *apperrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.StatusCode)
			assert.Equal(t, apperrors.CodeNotFound, apiErr.ErrorCode)
		})
	}
}

func TestDataService_Taxonomy(t *testing.T) {
	ds, _ := newTestService(&fakeRunner{}, nil)
	groups := ds.Taxonomy()
	require.NotEmpty(t, groups)
	assert.Equal(t, taxonomy.GroupNation, groups[0])
	assert.Equal(t, taxonomy.GroupUnclassified, groups[len(groups)-1])
}

func TestDataService_Series(t *testing.T) {
	t.Run("both categories", func(t *testing.T) {
		ds, _ := newTestService(&fakeRunner{results: []*operations.Result{fullResult("run-1")}}, nil)

		aligned, err := ds.Series(context.Background(), "전국", "", "")
		require.NoError(t, err)
		require.NotNil(t, aligned.Secondary)
		assert.InDelta(t, -1.7, aligned.Primary.Delta.Change, 1e-9)
		assert.InDelta(t, 0.5, aligned.Secondary.Delta.Change, 1e-9)
		assert.Len(t, aligned.Rows, 3)
	})

	t.Run("secondary category failed", func(t *testing.T) {
		ds, _ := newTestService(&fakeRunner{results: []*operations.Result{saleOnlyResult("run-1")}}, nil)

		aligned, err := ds.Series(context.Background(), "전국", "", "")
		require.NoError(t, err)
		assert.Nil(t, aligned.Secondary)
		assert.Len(t, aligned.Primary.Points, 3)
	})

	t.Run("secondary lacks region", func(t *testing.T) {
		ds, _ := newTestService(&fakeRunner{results: []*operations.Result{fullResult("run-1")}}, nil)

		aligned, err := ds.Series(context.Background(), "서울", "", "")
		require.NoError(t, err)
		assert.Nil(t, aligned.Secondary)
	})

	t.Run("unknown region", func(t *testing.T) {
		ds, _ := newTestService(&fakeRunner{results: []*operations.Result{fullResult("run-1")}}, nil)

		_, err := ds.Series(context.Background(), "부산", "", "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.True(t, errors.Is(err, series.ErrUnknownRegion))
	})
}

func TestDataService_News(t *testing.T) {
	runner := &fakeRunner{results: []*operations.Result{fullResult("run-1")}}

	t.Run("without searcher", func(t *testing.T) {
		ds, _ := newTestService(runner, nil)
		headlines, err := ds.News(context.Background(), "서울")
		require.NoError(t, err)
		assert.Empty(t, headlines)
	})

	t.Run("with searcher", func(t *testing.T) {
		searcher := &fakeSearcher{headlines: []domain.Headline{{Title: "서울 집값"}}}
		ds, _ := newTestService(runner, searcher)

		headlines, err := ds.News(context.Background(), "서울")
		require.NoError(t, err)
		assert.Equal(t, "서울 부동산", searcher.query)
		assert.Len(t, headlines, 1)
	})

	t.Run("searcher error", func(t *testing.T) {
		searcher := &fakeSearcher{err: apperrors.NewTransportError("down", nil)}
		ds, _ := newTestService(runner, searcher)

		_, err := ds.News(context.Background(), "서울")
		assert.ErrorIs(t, err, apperrors.ErrTransport)
	})
}
