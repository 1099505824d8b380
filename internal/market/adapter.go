// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// # Source Adapter Contract

// Adapter fetches raw market observations for one search query from one
// marketplace. Implementations parse provider markup and return already
// price-parsed, but otherwise unfiltered, listings.
type Adapter interface {
	// Source identifies the listing source this adapter produces.
	Source() Source

	// Fetch runs a single search query and returns up to maxItems
	// raw listings.
	Fetch(ctx context.Context, query string, maxItems int) ([]Listing, error)
}

// # Shared HTTP Fetcher

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

var botMarkers = []string{
	"pardon our interruption",
	"automated access",
	"captcha",
	"enable javascript",
	"robot check",
}

// FetcherOptions configure the shared marketplace HTTP client.
type FetcherOptions struct {
	Timeout       time.Duration
	Retries       int
	RatePerSecond float64
}

// Fetcher is the rate-limited, retrying HTTP client shared by all
// marketplace adapters. Marketplaces throttle scripted clients hard, so
// requests are paced globally and retried with a linear backoff when the
// response looks blocked.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	retries int
	logger  *slog.Logger
	rotor   atomic.Uint64
}

// NewFetcher builds a Fetcher with the given pacing options.
func NewFetcher(opts FetcherOptions, logger *slog.Logger) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		retries: retries,
		logger:  logger,
	}
}

/*
FetchPage downloads one marketplace page and returns its body.

Behavior:
  - Requests are globally rate limited; waiting respects ctx.
  - Blocked responses (HTTP 403/429, interstitial bot pages, suspiciously
    short bodies) are retried with a linear 600ms-per-attempt backoff.
  - referer is sent as-is; an empty referer is omitted.

Returns the page body, or an error after all attempts are exhausted.
*/
func (fetcher *Fetcher) FetchPage(ctx context.Context, pageURL, referer string) (string, error) {
	attempts := fetcher.retries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(float64(attempt-1) * 600 * float64(time.Millisecond))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := fetcher.limiter.Wait(ctx); err != nil {
			return "", err
		}

		body, err := fetcher.fetchOnce(ctx, pageURL, referer)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		fetcher.logger.Warn("market_fetch_attempt_failed",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}

	return "", fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func (fetcher *Fetcher) fetchOnce(ctx context.Context, pageURL, referer string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	index := fetcher.rotor.Add(1)
	request.Header.Set("User-Agent", userAgents[index%uint64(len(userAgents))])
	request.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	request.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.6")
	if referer != "" {
		request.Header.Set("Referer", referer)
	}

	response, err := fetcher.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusForbidden || response.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("blocked with status %d", response.StatusCode)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, 8<<20))
	if err != nil {
		return "", err
	}

	body := string(raw)
	if isBotInterstitial(body) {
		return "", fmt.Errorf("bot interstitial page")
	}
	return body, nil
}

// isBotInterstitial detects anti-scraping interstitials. A real result
// page is always large; tiny bodies are challenge pages or errors.
func isBotInterstitial(body string) bool {
	if len(strings.TrimSpace(body)) < 2000 {
		return true
	}
	lowered := strings.ToLower(body)
	for _, marker := range botMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// # Multi-Query Fan-Out

/*
FetchQueries runs the adapter over multiple search queries sequentially
and merges the results.

Per-query failures are logged and skipped so that one blocked query does
not sink the whole collection. Results are deduplicated across queries
and the loop stops early once maxItems unique listings are gathered.
*/
func FetchQueries(ctx context.Context, adapter Adapter, queries []string, maxItems int, logger *slog.Logger) []Listing {
	merged := make([]Listing, 0, maxItems)

	for _, query := range queries {
		if ctx.Err() != nil {
			break
		}

		listings, err := adapter.Fetch(ctx, query, maxItems)
		if err != nil {
			logger.Warn("market_query_failed",
				slog.String("source", string(adapter.Source())),
				slog.String("query", query),
				slog.String("error", err.Error()))
			continue
		}

		merged = Dedupe(append(merged, listings...))
		if len(merged) >= maxItems {
			merged = merged[:maxItems]
			break
		}
	}

	return merged
}
