// Package services implements the business logic behind the dashboard API.
// It sits between the HTTP handlers and the pipeline so that handlers stay
// thin and the snapshot rules live in one place.
//
// # Available Services
//
//	- DataService: keeps the last successful pipeline snapshot and answers
//	  table, classification, series and news queries from it
//	- HealthService: liveness and readiness based on the snapshot age
//
// # Snapshot Rules
//
// A snapshot is replaced only by a run whose primary category succeeded.
// When a refresh fails and an older snapshot exists, the older snapshot keeps
// serving and the failure is logged. Refreshes are serialized so concurrent
// requests against a stale snapshot trigger a single pipeline run.
package services
