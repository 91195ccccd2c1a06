package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "kbpulse/internal/errors"
)

// SheetsSink overwrites a Google Sheets range with the grid
type SheetsSink struct {
	service       *sheets.Service
	spreadsheetID string
	sheetRange    string
	logger        *slog.Logger
}

// NewSheetsSink creates a sink for one spreadsheet range. Credentials and
// endpoints are supplied through opts and passed to the client untouched.
func NewSheetsSink(ctx context.Context, spreadsheetID, sheetRange string, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, apperrors.NewInputError("sink", "spreadsheet id is required")
	}
	if sheetRange == "" {
		sheetRange = "Sheet1"
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		logger:        logger.With(slog.String("component", "sheets_sink")),
	}, nil
}

// Name identifies the sink in logs and metrics
func (s *SheetsSink) Name() string { return "sheets" }

// Overwrite clears the range, then writes the grid starting at A1
func (s *SheetsSink) Overwrite(ctx context.Context, grid [][]string) error {
	if len(grid) == 0 {
		return apperrors.NewInputError("sink", "grid has no header row")
	}

	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return apperrors.NewSinkError("failed to clear sheet range", err).
			WithContext("range", s.sheetRange)
	}

	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	target := s.sheetRange + "!A1"
	resp, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, target, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return apperrors.NewSinkError("failed to update sheet values", err).
			WithContext("range", target)
	}

	s.logger.InfoContext(ctx, "Sheet overwritten",
		slog.String("range", target),
		slog.Int64("updated_rows", resp.UpdatedRows),
		slog.Int64("updated_cells", resp.UpdatedCells))
	return nil
}
