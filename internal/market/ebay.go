// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmlparse "golang.org/x/net/html"
)

// # eBay Sold-Listings Adapter

const ebayBaseURL = "https://www.ebay.de"

// ebayItemFallback extracts item links with adjacent price text when the
// structured card markup cannot be located.
var ebayItemFallback = regexp.MustCompile(
	`href="(https://www\.ebay\.de/itm/[^"]+)"[^>]*>([^<]{10,200})</a>.{0,600}?(\d[\d.,]*\s*(?:€|EUR))`)

// EbayOptions configure the eBay adapter's price plausibility band.
// BaseURL defaults to the production host; tests point it elsewhere.
type EbayOptions struct {
	MinPriceEUR    float64
	RawMaxPriceEUR float64
	BaseURL        string
}

// EbayAdapter scrapes completed-and-sold search results from ebay.de.
// Sold listings are the highest-quality market signal available: the
// price was actually paid, not just asked.
type EbayAdapter struct {
	fetcher *Fetcher
	opts    EbayOptions
	logger  *slog.Logger
	now     func() time.Time
}

// NewEbayAdapter builds the eBay sold-listings adapter.
func NewEbayAdapter(fetcher *Fetcher, opts EbayOptions, logger *slog.Logger) *EbayAdapter {
	if opts.BaseURL == "" {
		opts.BaseURL = ebayBaseURL
	}
	return &EbayAdapter{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (adapter *EbayAdapter) Source() Source { return SourceEbaySold }

/*
Fetch downloads one sold-listings result page and parses its item cards.

eBay ships two markup generations (s-card and the older s-item); both are
handled. When neither yields cards, a regex fallback over the raw page
recovers item links. Sold timestamps are not exposed on the search page,
so listings carry the fetch time as an upper bound.
*/
func (adapter *EbayAdapter) Fetch(ctx context.Context, query string, maxItems int) ([]Listing, error) {
	searchURL := fmt.Sprintf(
		"%s/sch/i.html?_nkw=%s&LH_Complete=1&LH_Sold=1&_sop=13&rt=nc",
		adapter.opts.BaseURL, url.QueryEscape(query))

	body, err := adapter.fetcher.FetchPage(ctx, searchURL, adapter.opts.BaseURL+"/")
	if err != nil {
		return nil, err
	}

	document, err := parseHTMLDocument(body)
	if err != nil {
		return nil, fmt.Errorf("parse ebay page: %w", err)
	}

	fetchedAt := adapter.now().UTC()
	soldAt := fetchedAt

	cards := findAllByClass(document, "li", "s-card")
	cards = append(cards, findAllByClass(document, "li", "s-item")...)

	listings := make([]Listing, 0, maxItems)
	for _, card := range cards {
		if len(listings) >= maxItems {
			break
		}
		if listing, ok := adapter.parseCard(card, fetchedAt, soldAt); ok {
			listings = append(listings, listing)
		}
	}

	if len(listings) == 0 {
		listings = adapter.parseFallback(body, maxItems, fetchedAt, soldAt)
	}

	adapter.logger.Debug("ebay_page_parsed",
		slog.String("query", query),
		slog.Int("cards", len(cards)),
		slog.Int("listings", len(listings)))

	return listings, nil
}

func (adapter *EbayAdapter) parseCard(card *htmlparse.Node, fetchedAt, soldAt time.Time) (Listing, bool) {
	titleNode := findFirstByClass(card, "", "s-card__title")
	if titleNode == nil {
		titleNode = findFirstByClass(card, "", "s-item__title")
	}
	if titleNode == nil {
		return Listing{}, false
	}
	title := nodeText(titleNode)
	if title == "" || strings.EqualFold(title, "shop on ebay") {
		return Listing{}, false
	}

	priceNode := findFirstByClass(card, "", "s-card__price")
	if priceNode == nil {
		priceNode = findFirstByClass(card, "", "s-item__price")
	}
	if priceNode == nil {
		return Listing{}, false
	}
	price, ok := ParseEuro(nodeText(priceNode), adapter.opts.MinPriceEUR, adapter.opts.RawMaxPriceEUR)
	if !ok {
		return Listing{}, false
	}

	linkNode := findFirstByClass(card, "a", "s-card__link")
	if linkNode == nil {
		linkNode = findFirstByClass(card, "a", "s-item__link")
	}
	if linkNode == nil {
		return Listing{}, false
	}
	canonical := CanonicalizeListingURL(nodeAttr(linkNode, "href"))
	if canonical == "" {
		return Listing{}, false
	}

	sold := soldAt
	return Listing{
		Source:    SourceEbaySold,
		Title:     title,
		PriceEUR:  price,
		URL:       canonical,
		SoldAt:    &sold,
		FetchedAt: fetchedAt,
	}, true
}

func (adapter *EbayAdapter) parseFallback(body string, maxItems int, fetchedAt, soldAt time.Time) []Listing {
	matches := ebayItemFallback.FindAllStringSubmatch(body, maxItems*2)
	listings := make([]Listing, 0, len(matches))

	for _, match := range matches {
		if len(listings) >= maxItems {
			break
		}

		canonical := CanonicalizeListingURL(match[1])
		title := strings.TrimSpace(match[2])
		price, ok := ParseEuro(match[3], adapter.opts.MinPriceEUR, adapter.opts.RawMaxPriceEUR)
		if canonical == "" || title == "" || !ok {
			continue
		}

		sold := soldAt
		listings = append(listings, Listing{
			Source:    SourceEbaySold,
			Title:     title,
			PriceEUR:  price,
			URL:       canonical,
			SoldAt:    &sold,
			FetchedAt: fetchedAt,
		})
	}

	return listings
}
