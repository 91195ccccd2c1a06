// Package dataprocessing turns one sheet of the weekly price-index workbook
// into a clean, dated series table.
//
// # Stages
//
// The stages run strictly in this order, each one a small value with its
// own rule table so that upstream layout drift only touches data:
//
// 1. SheetResolver: picks the category sheet (summary sheet first)
// 2. TableExtractor: reads the grid below a fixed header row
// 3. ColumnSanitizer: normalizes labels, drops numeric and placeholder columns
// 4. DateNormalizer: keeps dated rows and parses region values
//
// # Usage
//
//	wb, err := dataprocessing.OpenWorkbook(data)
//	sheet, err := dataprocessing.NewSheetResolver("종합").Resolve(wb.SheetNames(), "매매")
//	raw, err := dataprocessing.NewTableExtractor(10).Extract(wb, sheet)
//	clean, _ := dataprocessing.NewColumnSanitizer().Sanitize(raw)
//	table, stats, err := dataprocessing.NewDateNormalizer(logger).Normalize("sale", clean)
//
// Every failure is an *errors.PipelineError. Undated rows are noise and are
// dropped silently; only a table with no dated row at all is an error.
package dataprocessing
