package dataprocessing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// sheetDef describes one sheet of a test workbook. Rows start at row 1.
type sheetDef struct {
	name string
	rows [][]interface{}
}

// buildWorkbook writes the sheets into an in-memory workbook and reopens it
// through OpenWorkbook, the same path production bytes take.
func buildWorkbook(t *testing.T, sheets ...sheetDef) *RawWorkbook {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	wb, err := OpenWorkbook(buf.Bytes())
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	return wb
}

// banner returns n rows of report metadata that precede the header
func banner(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{"KB weekly housing market trend"}
	}
	return rows
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
