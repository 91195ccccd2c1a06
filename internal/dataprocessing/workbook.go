package dataprocessing

import (
	"bytes"
	"sync"

	"github.com/xuri/excelize/v2"

	apperrors "kbpulse/internal/errors"
)

// RawWorkbook is a read-only handle on a downloaded workbook
type RawWorkbook struct {
	mu   sync.Mutex
	file *excelize.File
}

// OpenWorkbook parses workbook bytes. The payload should already have passed
// source.Sniff; a container excelize cannot read is still a content mismatch.
func OpenWorkbook(data []byte) (*RawWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		e := apperrors.NewContentMismatchError("payload could not be opened as a workbook")
		e.Step = "open"
		e.Cause = err
		return nil, e
	}
	return &RawWorkbook{file: f}, nil
}

// NewRawWorkbook wraps an already opened excelize file
func NewRawWorkbook(f *excelize.File) *RawWorkbook {
	return &RawWorkbook{file: f}
}

// SheetNames returns the sheet names in workbook order
func (w *RawWorkbook) SheetNames() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

// Rows returns the formatted cell values of a sheet
func (w *RawWorkbook) Rows(sheet string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetRows(sheet)
}

// Close releases the underlying file
func (w *RawWorkbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
