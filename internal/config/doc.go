// Package config provides centralized configuration management for kbpulse.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in increasing order
// of precedence:
//
//	1. Default values (Default)
//	2. A YAML file (config.yaml, configs/config.yaml or an explicit path)
//	3. Environment variables prefixed with KBP_
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	KBP_SERVER_PORT=8080
//	KBP_SOURCE_URL=https://...
//	KBP_WORKBOOK_HEADER_ROW=10
//	KBP_WORKBOOK_CATEGORIES=sale:매매,lease:전세
//	KBP_SINK_KIND=sheets
//	KBP_SINK_CREDENTIALS_JSON={...}
//
// The workbook section holds the layout heuristics (header offset, sheet
// keywords, summary qualifier). They describe an upstream format that drifts
// over time and are expected to be tuned through configuration rather than
// code changes.
package config
