package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"kbpulse/internal/config"
)

// Sink is a destination the relay job overwrites wholesale
type Sink interface {
	Name() string
	Overwrite(ctx context.Context, grid [][]string) error
}

// NewSink builds the sink selected by configuration
func NewSink(ctx context.Context, cfg config.SinkConfig, logger *slog.Logger) (Sink, error) {
	switch cfg.Kind {
	case config.SinkKindCSV:
		return NewCSVSink(cfg.CSVPath, logger), nil
	case config.SinkKindSheets:
		opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
		switch {
		case cfg.CredentialsJSON != "":
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
		case cfg.CredentialsFile != "":
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return NewSheetsSink(ctx, cfg.SpreadsheetID, cfg.Range, logger, opts...)
	default:
		return nil, fmt.Errorf("unsupported sink kind: %s", cfg.Kind)
	}
}
