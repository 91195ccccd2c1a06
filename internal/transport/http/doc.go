// Package http implements the dashboard JSON API.
// Handlers stay thin: they parse and validate parameters, call the data
// service and render either the result or an RFC 7807 problem.
//
// # Routes
//
//	GET  /api/health
//	GET  /api/categories
//	GET  /api/categories/{category}/table
//	GET  /api/categories/{category}/groups/{group}
//	GET  /api/taxonomy
//	GET  /api/series?region=&primary=&secondary=
//	GET  /api/news?region=
//	POST /api/refresh
//	GET  /metrics
//
// Region, group and category values are opaque labels. An unknown group
// yields an empty member list; an unknown region in /api/series is a 400.
package http
