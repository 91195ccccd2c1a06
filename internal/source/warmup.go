package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserWarmer visits the referrer page in headless Chrome and returns the
// cookies it was given. Some upstream deployments only serve the workbook
// to sessions that have loaded the site first.
type BrowserWarmer struct {
	PageURL string
	Timeout time.Duration
	logger  *slog.Logger
}

// NewBrowserWarmer creates a warmer for pageURL
func NewBrowserWarmer(pageURL string, timeout time.Duration, logger *slog.Logger) *BrowserWarmer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserWarmer{
		PageURL: pageURL,
		Timeout: timeout,
		logger:  logger.With(slog.String("component", "browser_warmer")),
	}
}

// Cookies launches a headless browser, loads the page and collects cookies
func (w *BrowserWarmer) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, w.Timeout)
	defer cancelTimeout()

	var raw []*network.Cookie
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(w.PageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			raw, err = network.GetCookies().WithUrls([]string{w.PageURL}).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("warm-up navigation to %s: %w", w.PageURL, err)
	}

	w.logger.InfoContext(ctx, "Browser session warmed", slog.Int("cookies", len(raw)))
	return convertCookies(raw), nil
}

func convertCookies(raw []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		if c == nil || c.Name == "" {
			continue
		}
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out
}
