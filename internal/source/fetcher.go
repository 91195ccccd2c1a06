package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"kbpulse/internal/config"
	apperrors "kbpulse/internal/errors"
)

// Source yields the raw bytes of one workbook
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// CookieWarmer obtains session cookies the upstream expects before a download
type CookieWarmer interface {
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

// Fetcher downloads the workbook over HTTP
type Fetcher struct {
	cfg     config.SourceConfig
	client  *http.Client
	limiter *rate.Limiter
	warmer  CookieWarmer
	logger  *slog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithCookieWarmer attaches cookies harvested by w to every request
func WithCookieWarmer(w CookieWarmer) Option {
	return func(f *Fetcher) {
		f.warmer = w
	}
}

// NewFetcher creates a new fetcher for the configured source
func NewFetcher(cfg config.SourceConfig, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultHTTPTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = config.MaxWorkbookBytes
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	f := &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With(slog.String("component", "source_fetcher")),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs one GET against the upstream and returns the sniffed payload
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTransportError("request pacing interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, apperrors.NewInputError("fetch", fmt.Sprintf("invalid source url %q", f.cfg.URL))
	}
	f.setHeaders(req)

	if f.warmer != nil {
		cookies, err := f.warmer.Cookies(ctx)
		if err != nil {
			return nil, apperrors.NewTransportError("browser warm-up failed", err)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WarnContext(ctx, "Workbook request failed",
			slog.String("url", f.cfg.URL),
			slog.String("error", err.Error()))
		return nil, apperrors.NewTransportError("workbook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransportError(
			fmt.Sprintf("upstream responded with status %d", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, apperrors.NewTransportError("failed to read workbook body", err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, apperrors.NewContentMismatchError(
			fmt.Sprintf("payload exceeds %d bytes", f.cfg.MaxBytes))
	}

	if err := Sniff(data); err != nil {
		f.logger.WarnContext(ctx, "Upstream payload rejected",
			slog.String("content_type", resp.Header.Get("Content-Type")),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return nil, err
	}

	f.logger.InfoContext(ctx, "Workbook downloaded",
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)))
	return data, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	if f.cfg.Referer != "" {
		req.Header.Set("Referer", f.cfg.Referer)
	}
	if f.cfg.Accept != "" {
		req.Header.Set("Accept", f.cfg.Accept)
	}
	if f.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
}
