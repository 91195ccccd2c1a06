package operations

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kbpulse/internal/config"
)

const testHeaderRow = 2

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testWorkbookConfig() config.WorkbookConfig {
	return config.WorkbookConfig{
		HeaderRow:         testHeaderRow,
		SummaryQualifier:  "Summary",
		Categories:        map[string]string{"sale": "Sale", "lease": "Lease"},
		PrimaryCategory:   "sale",
		SecondaryCategory: "lease",
	}
}

// saleSheet is a category sheet in the upstream layout: two banner rows,
// the header, a banner row, then weekly data.
func saleSheet() [][]interface{} {
	return [][]interface{}{
		{"KB weekly housing market trend"},
		{"unit: index"},
		{"Date", "National", "Seoul", "Unnamed: 3", "101.2"},
		{"Weekly change rate (%)"},
		{"2024-01-01", 100.0, 101.0, "", 1},
		{"2024-01-08", 101.5, 101.2, "", 2},
		{"2024-01-15", 99.8, 101.4, "", 3},
	}
}

func leaseSheet() [][]interface{} {
	return [][]interface{}{
		{"KB weekly housing market trend"},
		{"unit: index"},
		{"Date", "National"},
		{"2024-01-08", 90.0},
		{"2024-01-15", 90.5},
	}
}

func workbookBytes(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			row := row
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// fakeSource replays errs in order, then serves data. A nil entry in errs
// also serves data.
type fakeSource struct {
	mu    sync.Mutex
	data  []byte
	errs  []error
	calls int
}

func (s *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.data, nil
}

func (s *fakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}
