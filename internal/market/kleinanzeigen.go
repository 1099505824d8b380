// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// # Kleinanzeigen Offer Adapter

const kleinanzeigenBaseURL = "https://www.kleinanzeigen.de"

// KleinanzeigenOptions configure the classifieds adapter's price band.
// BaseURL defaults to the production host; tests point it elsewhere.
type KleinanzeigenOptions struct {
	MinPriceEUR    float64
	RawMaxPriceEUR float64
	BaseURL        string
}

// KleinanzeigenAdapter scrapes active offers from kleinanzeigen.de.
// Offers are asking prices, not transactions; the pricing engine weights
// them down accordingly.
type KleinanzeigenAdapter struct {
	fetcher *Fetcher
	opts    KleinanzeigenOptions
	logger  *slog.Logger
	now     func() time.Time
}

// NewKleinanzeigenAdapter builds the classifieds offer adapter.
func NewKleinanzeigenAdapter(fetcher *Fetcher, opts KleinanzeigenOptions, logger *slog.Logger) *KleinanzeigenAdapter {
	if opts.BaseURL == "" {
		opts.BaseURL = kleinanzeigenBaseURL
	}
	return &KleinanzeigenAdapter{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (adapter *KleinanzeigenAdapter) Source() Source { return SourceKleinanzeigenOffer }

// Fetch downloads one search result page and parses its ad items.
// Offers have no sold timestamp; freshness is tracked via FetchedAt.
func (adapter *KleinanzeigenAdapter) Fetch(ctx context.Context, query string, maxItems int) ([]Listing, error) {
	searchURL := fmt.Sprintf("%s/s-suchanfrage.html?keywords=%s",
		adapter.opts.BaseURL, url.QueryEscape(query))

	body, err := adapter.fetcher.FetchPage(ctx, searchURL, adapter.opts.BaseURL+"/")
	if err != nil {
		return nil, err
	}

	document, err := parseHTMLDocument(body)
	if err != nil {
		return nil, fmt.Errorf("parse kleinanzeigen page: %w", err)
	}

	fetchedAt := adapter.now().UTC()
	cards := findAllByClass(document, "article", "aditem")

	listings := make([]Listing, 0, maxItems)
	for _, card := range cards {
		if len(listings) >= maxItems {
			break
		}

		linkNode := findFirstByClassContains(card, "a", "ellipsis")
		if linkNode == nil {
			continue
		}
		title := nodeText(linkNode)
		if title == "" {
			continue
		}

		href := strings.TrimSpace(nodeAttr(linkNode, "href"))
		if href == "" {
			href = strings.TrimSpace(nodeAttr(card, "data-href"))
		}
		if href == "" {
			continue
		}
		if strings.HasPrefix(href, "/") {
			href = adapter.opts.BaseURL + href
		}

		priceNode := findFirstByClassContains(card, "p", "aditem-main--middle--price-shipping--price")
		if priceNode == nil {
			continue
		}
		price, ok := ParseEuro(nodeText(priceNode), adapter.opts.MinPriceEUR, adapter.opts.RawMaxPriceEUR)
		if !ok {
			continue
		}

		listings = append(listings, Listing{
			Source:    SourceKleinanzeigenOffer,
			Title:     title,
			PriceEUR:  price,
			URL:       href,
			FetchedAt: fetchedAt,
		})
	}

	adapter.logger.Debug("kleinanzeigen_page_parsed",
		slog.String("query", query),
		slog.Int("cards", len(cards)),
		slog.Int("listings", len(listings)))

	return listings, nil
}
