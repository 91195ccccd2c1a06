package series

import (
	"strconv"

	"kbpulse/pkg/contracts/domain"
)

// GridDateLayout is how dates are written to sinks
const GridDateLayout = "2006-01-02"

// Grid renders the most recent weeks of a table, newest first, as a
// rectangular string grid with a header row. Missing values are blank.
// weeks <= 0 renders every record.
func Grid(t *domain.CleanedSeriesTable, weeks int) [][]string {
	if t == nil {
		return nil
	}
	header := t.Columns()
	grid := [][]string{header}

	records := t.Records
	if weeks > 0 && len(records) > weeks {
		records = records[len(records)-weeks:]
	}

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		row := make([]string, len(header))
		row[0] = rec.Date.Format(GridDateLayout)
		for j, region := range t.Regions {
			if v, ok := rec.Values[region]; ok {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		grid = append(grid, row)
	}
	return grid
}
