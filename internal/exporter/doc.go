// Package exporter writes rendered series grids to their destination.
//
// Two sinks implement the relay contract of overwriting the destination
// wholesale with a header row plus data rows:
//
// SheetsSink: clears a Google Sheets range and writes the grid at A1 with
// RAW input, so dates and numbers are stored exactly as rendered.
//
// CSVSink: writes the grid to a local file with a UTF-8 BOM so spreadsheet
// tools detect the encoding of Korean region labels.
//
// Example usage:
//
//	sink, err := exporter.NewSink(ctx, cfg.Sink, logger)
//	err = sink.Overwrite(ctx, grid)
package exporter
