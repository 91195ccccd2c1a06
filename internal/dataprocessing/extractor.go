package dataprocessing

import (
	"fmt"
	"strings"

	apperrors "kbpulse/internal/errors"
	"kbpulse/pkg/contracts/domain"
)

// PlaceholderPrefix names header cells that carry no text
const PlaceholderPrefix = "Unnamed: "

// TableExtractor reads a sheet below a fixed header offset
type TableExtractor struct {
	// HeaderRow is the zero-based index of the field-name row
	HeaderRow int
}

// NewTableExtractor creates an extractor for the given header offset
func NewTableExtractor(headerRow int) *TableExtractor {
	return &TableExtractor{HeaderRow: headerRow}
}

// Extract returns the header row as columns and everything below it as rows.
// Blank header cells become "Unnamed: <index>" and repeated labels get a
// ".N" suffix. Fully blank rows are skipped.
func (e *TableExtractor) Extract(wb *RawWorkbook, sheet string) (*domain.SheetTable, error) {
	rows, err := wb.Rows(sheet)
	if err != nil {
		return nil, apperrors.NewSheetNotFoundError(sheet, wb.SheetNames())
	}
	return e.FromRows(sheet, rows)
}

// FromRows builds a table from already read cell values
func (e *TableExtractor) FromRows(sheet string, rows [][]string) (*domain.SheetTable, error) {
	if e.HeaderRow < 0 {
		return nil, apperrors.NewInputError("extract", fmt.Sprintf("negative header row %d", e.HeaderRow))
	}
	if e.HeaderRow >= len(rows) {
		return nil, apperrors.NewEmptyTableError(sheet, e.HeaderRow)
	}

	header := rows[e.HeaderRow]
	body := rows[e.HeaderRow+1:]

	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}

	table := &domain.SheetTable{
		Sheet:   sheet,
		Columns: headerLabels(header, width),
		Rows:    make([][]string, 0, len(body)),
	}
	for _, row := range body {
		if isBlankRow(row) {
			continue
		}
		cells := make([]string, width)
		copy(cells, row)
		table.Rows = append(table.Rows, cells)
	}

	if len(table.Rows) == 0 {
		return nil, apperrors.NewEmptyTableError(sheet, e.HeaderRow)
	}
	return table, nil
}

func headerLabels(header []string, width int) []string {
	labels := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		label := ""
		if i < len(header) {
			label = header[i]
		}
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("%s%d", PlaceholderPrefix, i)
		}
		if n, dup := seen[label]; dup {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n+1)
		} else {
			seen[label] = 0
		}
		labels[i] = label
	}
	return labels
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
