package domain

import (
	"time"
)

// DateColumn is the canonical name of the leading date column
const DateColumn = "date"

// SheetTable is a raw grid read from one sheet starting at the header row.
// Every row has exactly len(Columns) cells.
type SheetTable struct {
	Sheet   string     `json:"sheet"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Clone returns a deep copy of the table
func (t *SheetTable) Clone() *SheetTable {
	if t == nil {
		return nil
	}
	out := &SheetTable{
		Sheet:   t.Sheet,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Record is one dated row of a cleaned table. Regions without a numeric
// value for the date are absent from Values.
type Record struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Point is one dated observation of a single series
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// CleanedSeriesTable is the normalized output for one category.
// Records are ordered by ascending, unique date.
type CleanedSeriesTable struct {
	Category string   `json:"category"`
	Sheet    string   `json:"sheet"`
	Regions  []string `json:"regions"`
	Records  []Record `json:"records"`
}

// Columns returns the canonical date column followed by the region labels
func (t *CleanedSeriesTable) Columns() []string {
	cols := make([]string, 0, len(t.Regions)+1)
	cols = append(cols, DateColumn)
	return append(cols, t.Regions...)
}

// HasRegion reports whether the table carries a column for region
func (t *CleanedSeriesTable) HasRegion(region string) bool {
	if t == nil {
		return false
	}
	for _, r := range t.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// Series returns the dated values of one region, skipping missing cells
func (t *CleanedSeriesTable) Series(region string) []Point {
	if t == nil {
		return nil
	}
	points := make([]Point, 0, len(t.Records))
	for _, rec := range t.Records {
		if v, ok := rec.Values[region]; ok {
			points = append(points, Point{Date: rec.Date, Value: v})
		}
	}
	return points
}

// DateRange returns the first and last record dates
func (t *CleanedSeriesTable) DateRange() (time.Time, time.Time) {
	if t == nil || len(t.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return t.Records[0].Date, t.Records[len(t.Records)-1].Date
}

// Delta is the change between the two most recent observations.
// Defined is false when fewer than two observations exist.
type Delta struct {
	Latest   float64 `json:"latest"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
	Defined  bool    `json:"defined"`
}

// CategorySeries is one category's series for a region
type CategorySeries struct {
	Category string  `json:"category"`
	Points   []Point `json:"points"`
	Delta    Delta   `json:"delta"`
}

// AlignedRow is one date of the joined series. A nil pointer means the
// category has no value on that date.
type AlignedRow struct {
	Date      time.Time `json:"date"`
	Primary   *float64  `json:"primary"`
	Secondary *float64  `json:"secondary"`
}

// AlignedSeries joins two categories for one region on the date axis.
// Secondary is nil when the second category does not cover the region.
type AlignedSeries struct {
	Region    string          `json:"region"`
	Primary   CategorySeries  `json:"primary"`
	Secondary *CategorySeries `json:"secondary,omitempty"`
	Rows      []AlignedRow    `json:"rows"`
}
