package dataprocessing

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "kbpulse/internal/errors"
	"kbpulse/pkg/contracts/domain"
)

// DateLayouts are the textual date forms found in the weekly workbook and
// its exports. Single-digit month and day layouts also accept two digits.
var DateLayouts = []string{
	"2006-1-2",
	"2006.1.2",
	"2006.1.2.",
	"2006/1/2",
	"20060102",
	"1-2-06",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006년 1월 2일",
}

// Excel serial numbers are only trusted inside this window, so stray
// numbers in banner rows are not mistaken for dates.
const (
	minSerialDate = 32874 // 1990-01-01
	maxSerialDate = 73051 // 2100-01-01
)

// ParseDate parses one date cell, returning midnight UTC
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), true
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil &&
		serial >= minSerialDate && serial < maxSerialDate {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

// ParseValue parses one numeric cell. Blank, dash and non-numeric cells
// yield ok=false and must be treated as missing.
func ParseValue(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" || cell == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeStats summarizes what the normalizer discarded
type NormalizeStats struct {
	Scanned    int `json:"scanned"`
	Kept       int `json:"kept"`
	Undated    int `json:"undated"`
	Duplicates int `json:"duplicates"`
}

// Dropped is the number of input rows absent from the output
func (s NormalizeStats) Dropped() int {
	return s.Undated + s.Duplicates
}

// DateNormalizer turns a sanitized table into a dated series table
type DateNormalizer struct {
	logger *slog.Logger
}

// NewDateNormalizer creates a new normalizer
func NewDateNormalizer(logger *slog.Logger) *DateNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DateNormalizer{logger: logger.With(slog.String("component", "date_normalizer"))}
}

// Normalize renames the first column to the date axis, drops rows whose
// first cell is not a date, keeps the first row of any repeated date and
// sorts records ascending. It fails only when no row survives.
func (n *DateNormalizer) Normalize(category string, t *domain.SheetTable) (*domain.CleanedSeriesTable, NormalizeStats, error) {
	stats := NormalizeStats{}
	if t == nil || len(t.Columns) == 0 {
		return nil, stats, apperrors.NewNoValidRowsError("", 0).WithCategory(category)
	}

	regions := append([]string(nil), t.Columns[1:]...)
	seen := make(map[time.Time]bool, len(t.Rows))
	records := make([]domain.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		stats.Scanned++
		if len(row) == 0 {
			stats.Undated++
			continue
		}
		date, ok := ParseDate(row[0])
		if !ok {
			stats.Undated++
			n.logger.Debug("Dropping undated row",
				slog.String("category", category),
				slog.String("sheet", t.Sheet),
				slog.String("value", row[0]))
			continue
		}
		if seen[date] {
			stats.Duplicates++
			continue
		}
		seen[date] = true

		values := make(map[string]float64, len(regions))
		for i, region := range regions {
			if i+1 >= len(row) {
				break
			}
			if v, ok := ParseValue(row[i+1]); ok {
				values[region] = v
			}
		}
		records = append(records, domain.Record{Date: date, Values: values})
	}

	if len(records) == 0 {
		return nil, stats, apperrors.NewNoValidRowsError(t.Sheet, stats.Scanned).WithCategory(category)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	stats.Kept = len(records)

	return &domain.CleanedSeriesTable{
		Category: category,
		Sheet:    t.Sheet,
		Regions:  regions,
		Records:  records,
	}, stats, nil
}
