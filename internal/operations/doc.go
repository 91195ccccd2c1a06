// Package operations orchestrates the workbook pipeline and the relay job.
//
// Pipeline runs fetch once per run, then the per-category steps
// (resolve, extract, sanitize, normalize) for every requested category.
// Categories have no ordering dependency and run concurrently. A category
// failure is recorded in Result.Failures and does not stop its siblings;
// fetch and open failures are fatal for the run.
//
// Updater is the relay job. It runs the pipeline for the primary category,
// renders the latest weeks as a grid and overwrites a sink. It owns the
// retry policy: only errors marked retryable (transport, sink) are retried,
// with exponential backoff.
//
// Example usage:
//
//	p := operations.NewPipeline(cfg.Workbook, fetcher, logger,
//		operations.WithMetrics(metrics))
//	result, err := p.Run(ctx)
//	sale, err := result.Table("sale")
//
//	u := operations.NewUpdater(p, sink, operations.RetryConfigFrom(cfg.Retry),
//		cfg.Workbook.PrimaryCategory, cfg.Sink.Weeks, logger)
//	report, err := u.Run(ctx)
package operations
