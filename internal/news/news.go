// Package news looks up region headlines on an HTML search page.
// The page layout is configured through CSS selectors, so a markup change
// upstream is a configuration change here.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kbpulse/internal/config"
	apperrors "kbpulse/internal/errors"
	"kbpulse/pkg/contracts/domain"
)

// Searcher returns headlines for a free-text query
type Searcher interface {
	Lookup(ctx context.Context, query string) ([]domain.Headline, error)
}

// Client scrapes a search results page
type Client struct {
	cfg    config.NewsConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a news client. A nil httpClient gets one with the
// configured timeout.
func NewClient(cfg config.NewsConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		client: httpClient,
		logger: logger.With(slog.String("component", "news")),
	}
}

// Query builds the search phrase for a region
func (c *Client) Query(region string) string {
	region = strings.TrimSpace(region)
	if c.cfg.QuerySuffix == "" {
		return region
	}
	return region + " " + c.cfg.QuerySuffix
}

// Lookup fetches at most Limit headlines. No results is not an error.
func (c *Client) Lookup(ctx context.Context, query string) ([]domain.Headline, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewInputError("news", "query is required")
	}

	target, err := c.searchURL(query)
	if err != nil {
		return nil, apperrors.NewInputError("news", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to build news request", err)
	}
	req.Header.Set("User-Agent", config.DefaultUserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("news request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewTransportError(fmt.Sprintf("news search returned %s", resp.Status), nil).
			WithContext("status", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to parse news page", err)
	}

	headlines := c.parse(doc, target)
	c.logger.DebugContext(ctx, "News lookup complete",
		slog.String("query", query),
		slog.Int("results", len(headlines)))
	return headlines, nil
}

func (c *Client) searchURL(query string) (*url.URL, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid news endpoint %q", c.cfg.Endpoint)
	}

	params, err := url.ParseQuery(c.cfg.ExtraParams)
	if err != nil {
		return nil, fmt.Errorf("invalid extra params: %w", err)
	}
	for k, v := range u.Query() {
		params[k] = v
	}
	param := c.cfg.QueryParam
	if param == "" {
		param = "query"
	}
	params.Set(param, query)
	u.RawQuery = params.Encode()
	return u, nil
}

func (c *Client) parse(doc *goquery.Document, base *url.URL) []domain.Headline {
	headlines := []domain.Headline{}
	doc.Find(c.cfg.ItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if c.cfg.Limit > 0 && len(headlines) >= c.cfg.Limit {
			return false
		}

		title := item.Find(c.cfg.TitleSelector).First()
		text := collapse(title.Text())
		if text == "" {
			return true
		}

		h := domain.Headline{Title: text}
		if href, ok := title.Attr("href"); ok {
			if ref, err := url.Parse(href); err == nil {
				h.Link = base.ResolveReference(ref).String()
			}
		}
		if c.cfg.ExcerptSelector != "" {
			h.Excerpt = collapse(item.Find(c.cfg.ExcerptSelector).First().Text())
		}

		headlines = append(headlines, h)
		return true
	})
	return headlines
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
