// Package app wires configuration, telemetry, the workbook pipeline and
// the dashboard services into one HTTP server.
//
// # Initialization Flow
//
//	1. The caller loads configuration and initializes the logger
//	2. Tracing and prometheus metrics are set up
//	3. The taxonomy is loaded and the pipeline is built on the source fetcher
//	4. Data and health services are created around the pipeline
//	5. The chi router, middleware and HTTP server are configured
//
// # Usage
//
//	app, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context, once
// in-flight requests have finished and spans have been flushed. The app
// never calls os.Exit.
package app
