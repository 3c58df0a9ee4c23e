// Package topjobs reads the topjobs.lk job board: category listings and
// the contact email on a posting's detail page.
package topjobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jobapply-engine/internal/config"
)

const DefaultBaseURL = "https://www.topjobs.lk"

type Config struct {
	BaseURL   string        // absolute prefix of detail URLs
	UserAgent string        // sent on category requests only
	Timeout   time.Duration // per request
}

func ConfigFrom(cfg config.Config) Config {
	return Config{
		BaseURL:   cfg.Scrape.BaseURL,
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.ScrapeTimeout(),
	}
}

// Scraper implements both the category fetcher and the detail extractor.
type Scraper struct {
	cfg Config
	hc  *http.Client
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Scraper {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Scraper{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		log: log,
	}
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

func (s *Scraper) get(ctx context.Context, rawURL, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", rawURL, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		res.Body.Close()
		return nil, &HTTPError{StatusCode: res.StatusCode, URL: rawURL}
	}
	return res, nil
}
