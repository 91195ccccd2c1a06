// Package series joins category tables into per-region aligned series and
// renders tables into the string grids the relay sinks consume.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	apperrors "kbpulse/internal/errors"
	"kbpulse/pkg/contracts/domain"
)

// ErrUnknownRegion is wrapped by the validation error Align returns when the
// region is absent from the primary table
var ErrUnknownRegion = errors.New("unknown region")

// Align joins the region's series from primary and secondary on date.
// The secondary table may be nil or lack the region; the result then has no
// secondary series and no values are invented for it.
func Align(primary, secondary *domain.CleanedSeriesTable, region string) (*domain.AlignedSeries, error) {
	if primary == nil {
		return nil, apperrors.NewInputError("align", "primary table is missing")
	}
	if !primary.HasRegion(region) {
		e := apperrors.NewInputError("align",
			fmt.Sprintf("region %q is not in the %s table", region, primary.Category))
		e.Cause = ErrUnknownRegion
		return nil, e.WithContext("region", region)
	}

	out := &domain.AlignedSeries{
		Region:  region,
		Primary: categorySeries(primary, region),
	}
	if secondary.HasRegion(region) {
		s := categorySeries(secondary, region)
		out.Secondary = &s
	}
	out.Rows = joinRows(out.Primary.Points, out.Secondary)
	return out, nil
}

func categorySeries(t *domain.CleanedSeriesTable, region string) domain.CategorySeries {
	points := t.Series(region)
	return domain.CategorySeries{
		Category: t.Category,
		Points:   points,
		Delta:    ComputeDelta(points),
	}
}

// ComputeDelta returns latest minus previous. With fewer than two points the
// delta is undefined, never zero.
func ComputeDelta(points []domain.Point) domain.Delta {
	if len(points) < 2 {
		d := domain.Delta{}
		if len(points) == 1 {
			d.Latest = points[0].Value
		}
		return d
	}
	latest := points[len(points)-1].Value
	previous := points[len(points)-2].Value
	return domain.Delta{
		Latest:   latest,
		Previous: previous,
		Change:   latest - previous,
		Defined:  true,
	}
}

func joinRows(primary []domain.Point, secondary *domain.CategorySeries) []domain.AlignedRow {
	byDate := make(map[time.Time]*domain.AlignedRow)
	row := func(d time.Time) *domain.AlignedRow {
		r, ok := byDate[d]
		if !ok {
			r = &domain.AlignedRow{Date: d}
			byDate[d] = r
		}
		return r
	}

	for _, p := range primary {
		v := p.Value
		row(p.Date).Primary = &v
	}
	if secondary != nil {
		for _, p := range secondary.Points {
			v := p.Value
			row(p.Date).Secondary = &v
		}
	}

	rows := make([]domain.AlignedRow, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}
