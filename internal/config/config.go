package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Workbook  WorkbookConfig  `yaml:"workbook" envconfig:"WORKBOOK"`
	Sink      SinkConfig      `yaml:"sink" envconfig:"SINK"`
	Retry     RetryConfig     `yaml:"retry" envconfig:"RETRY"`
	News      NewsConfig      `yaml:"news" envconfig:"NEWS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RefreshInterval is how old the in-memory snapshot may get before a
	// request triggers a new pipeline run.
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL"`
	// APIKey, when set, is required by POST /api/refresh
	APIKey          string        `yaml:"-" envconfig:"API_KEY"`
	RefreshRPS      float64       `yaml:"refresh_rps" envconfig:"REFRESH_RPS"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourceConfig describes the upstream workbook endpoint. The upstream host
// rejects non-browser clients, so the request headers mimic a browser.
type SourceConfig struct {
	URL            string        `yaml:"url" envconfig:"URL"`
	Referer        string        `yaml:"referer" envconfig:"REFERER"`
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Accept         string        `yaml:"accept" envconfig:"ACCEPT"`
	AcceptLanguage string        `yaml:"accept_language" envconfig:"ACCEPT_LANGUAGE"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MinInterval    time.Duration `yaml:"min_interval" envconfig:"MIN_INTERVAL"`
	MaxBytes       int64         `yaml:"max_bytes" envconfig:"MAX_BYTES"`
	BrowserWarmup  bool          `yaml:"browser_warmup" envconfig:"BROWSER_WARMUP"`
}

// WorkbookConfig holds the layout heuristics for the upstream workbook
type WorkbookConfig struct {
	// HeaderRow is the zero-based row index of the field-name row
	HeaderRow         int               `yaml:"header_row" envconfig:"HEADER_ROW"`
	SummaryQualifier  string            `yaml:"summary_qualifier" envconfig:"SUMMARY_QUALIFIER"`
	Categories        map[string]string `yaml:"categories" envconfig:"CATEGORIES"`
	PrimaryCategory   string            `yaml:"primary_category" envconfig:"PRIMARY_CATEGORY"`
	SecondaryCategory string            `yaml:"secondary_category" envconfig:"SECONDARY_CATEGORY"`
	TaxonomyFile      string            `yaml:"taxonomy_file" envconfig:"TAXONOMY_FILE"`
}

// SinkConfig configures where the relay job writes its grid
type SinkConfig struct {
	Kind            string `yaml:"kind" envconfig:"KIND"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"RANGE"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	CredentialsJSON string `yaml:"-" envconfig:"CREDENTIALS_JSON"`
	CSVPath         string `yaml:"csv_path" envconfig:"CSV_PATH"`
	Weeks           int    `yaml:"weeks" envconfig:"WEEKS"`
}

// RetryConfig defines the relay job's retry behavior
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	InitialDelay time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY"`
	MaxDelay     time.Duration `yaml:"max_delay" envconfig:"MAX_DELAY"`
	Multiplier   float64       `yaml:"multiplier" envconfig:"MULTIPLIER"`
}

// NewsConfig configures the headline search collaborator
type NewsConfig struct {
	Endpoint        string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	QueryParam      string        `yaml:"query_param" envconfig:"QUERY_PARAM"`
	ExtraParams     string        `yaml:"extra_params" envconfig:"EXTRA_PARAMS"`
	QuerySuffix     string        `yaml:"query_suffix" envconfig:"QUERY_SUFFIX"`
	ItemSelector    string        `yaml:"item_selector" envconfig:"ITEM_SELECTOR"`
	TitleSelector   string        `yaml:"title_selector" envconfig:"TITLE_SELECTOR"`
	ExcerptSelector string        `yaml:"excerpt_selector" envconfig:"EXCERPT_SELECTOR"`
	Limit           int           `yaml:"limit" envconfig:"LIMIT"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, an optional YAML file and
// KBP_* environment variables, in increasing order of precedence.
// An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// CategoryNames returns the configured category names in a stable order,
// primary first, secondary second, the rest alphabetically.
func (c *Config) CategoryNames() []string {
	return c.Workbook.CategoryNames()
}

// CategoryNames orders the workbook categories, primary first
func (w WorkbookConfig) CategoryNames() []string {
	names := make([]string, 0, len(w.Categories))
	for name := range w.Categories {
		if name != w.PrimaryCategory && name != w.SecondaryCategory {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	head := []string{w.PrimaryCategory}
	if w.SecondaryCategory != "" {
		head = append(head, w.SecondaryCategory)
	}
	return append(head, names...)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source url is required")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}

	if c.Workbook.HeaderRow < 0 {
		return fmt.Errorf("header row must not be negative: %d", c.Workbook.HeaderRow)
	}
	if len(c.Workbook.Categories) == 0 {
		return fmt.Errorf("at least one category must be configured")
	}
	for name, keyword := range c.Workbook.Categories {
		if strings.TrimSpace(keyword) == "" {
			return fmt.Errorf("category %q has an empty sheet keyword", name)
		}
	}
	if _, ok := c.Workbook.Categories[c.Workbook.PrimaryCategory]; !ok {
		return fmt.Errorf("primary category %q is not configured", c.Workbook.PrimaryCategory)
	}
	if c.Workbook.SecondaryCategory != "" {
		if _, ok := c.Workbook.Categories[c.Workbook.SecondaryCategory]; !ok {
			return fmt.Errorf("secondary category %q is not configured", c.Workbook.SecondaryCategory)
		}
	}

	switch c.Sink.Kind {
	case SinkKindSheets, SinkKindCSV:
	default:
		return fmt.Errorf("unsupported sink kind: %s", c.Sink.Kind)
	}
	if c.Sink.Weeks <= 0 {
		return fmt.Errorf("sink weeks must be positive")
	}

	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = 1
	}

	if c.Logging.Format != "json" {
		// Always JSON
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    3 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RefreshInterval: 6 * time.Hour,
			RefreshRPS:      0.1,
			RequestTimeout:  2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   "console",
			FilePath: "logs/kbpulse.log",
		},
		Source: SourceConfig{
			URL:            DefaultSourceURL,
			Referer:        DefaultReferer,
			UserAgent:      DefaultUserAgent,
			Accept:         DefaultAccept,
			AcceptLanguage: "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
			Timeout:        DefaultHTTPTimeout,
			MinInterval:    5 * time.Second,
			MaxBytes:       MaxWorkbookBytes,
		},
		Workbook: WorkbookConfig{
			HeaderRow:        DefaultHeaderRow,
			SummaryQualifier: "종합",
			Categories: map[string]string{
				CategorySale:  "매매",
				CategoryLease: "전세",
			},
			PrimaryCategory:   CategorySale,
			SecondaryCategory: CategoryLease,
		},
		Sink: SinkConfig{
			Kind:    SinkKindSheets,
			Range:   "Sheet1",
			CSVPath: "data/kb_data.csv",
			Weeks:   10,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		News: NewsConfig{
			Endpoint:        "https://search.naver.com/search.naver",
			QueryParam:      "query",
			ExtraParams:     "where=news&sort=1",
			QuerySuffix:     "부동산",
			ItemSelector:    "div.news_area",
			TitleSelector:   "a.news_tit",
			ExcerptSelector: ".news_dsc",
			Limit:           5,
			Timeout:         10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
	}
}
