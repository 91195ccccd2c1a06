package config

import "time"

// Application constants
const (
	AppName    = "KB Pulse"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. KBP_SERVER_PORT
	EnvPrefix = "KBP"

	// Categories tracked by the KB weekly workbook
	CategorySale  = "sale"
	CategoryLease = "lease"

	// Sink kinds
	SinkKindSheets = "sheets"
	SinkKindCSV    = "csv"

	// Workbook layout: report metadata occupies the rows above the header
	DefaultHeaderRow = 10

	// Network
	DefaultHTTPTimeout = 30 * time.Second
	MaxWorkbookBytes   = 50 * 1024 * 1024

	// Log Settings
	DefaultLogLevel = "info"
)

// Upstream endpoint defaults. These drift without notice upstream and are
// always overridable through configuration.
const (
	DefaultSourceURL = "https://data-api.kbland.kr/bfmstat/weekMnthlyHuseTrnd/excelDown?mnthlyWklyDvsnCd=02"
	DefaultReferer   = "https://kbland.kr/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultAccept    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel,application/octet-stream;q=0.9,*/*;q=0.8"
)
