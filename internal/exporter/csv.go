package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "kbpulse/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSVFile replaces path with grid in one rename, so readers never see a
// half-written file. A UTF-8 BOM keeps Excel from misreading Hangul headers.
func writeCSVFile(path string, grid [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(tmp)
	for i, record := range grid {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// CSVSink overwrites a local CSV file with the grid
type CSVSink struct {
	path   string
	logger *slog.Logger
}

// NewCSVSink creates a sink writing to path
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{
		path:   path,
		logger: logger.With(slog.String("component", "csv_sink")),
	}
}

// Name identifies the sink in logs and metrics
func (s *CSVSink) Name() string { return "csv" }

// Overwrite replaces the file contents with grid. The first row is the header.
func (s *CSVSink) Overwrite(ctx context.Context, grid [][]string) error {
	if len(grid) == 0 {
		return apperrors.NewInputError("sink", "grid has no header row")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewSinkError("write cancelled", err)
	}

	if err := writeCSVFile(s.path, grid); err != nil {
		return apperrors.NewSinkError(fmt.Sprintf("failed to write %s", s.path), err)
	}

	s.logger.InfoContext(ctx, "Grid written",
		slog.String("file_path", s.path),
		slog.Int("record_count", len(grid)-1))
	return nil
}
