// Package source retrieves the weekly price-index workbook.
//
// Fetcher downloads the workbook from the upstream data API with
// browser-like headers, paced by a token-bucket limiter. FileSource reads a
// workbook already on disk. Both run the payload through Sniff before it
// reaches the spreadsheet parser, so an HTML error page served with a 200
// status becomes a content mismatch instead of a parse failure.
//
// Neither source retries. Retry policy belongs to the relay job.
package source
