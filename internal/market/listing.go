// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

/*
Package market acquires and sanitizes secondary-market listing data.

The pipeline is: source adapters fetch raw marketplace rows, the normalizer
canonicalizes prices and URLs, the quality filters drop polluted rows
(bundles, accessories, wrong media, defect items), and the store persists
the surviving observations for the pricing aggregator.

Listings are evidence, not truth: every gate in this package prefers losing
a good row over keeping a bad one, because a polluted sample skews the
published price estimate.
*/
package market

import "time"

// # Sources

// Source identifies where a listing observation came from. The pricing
// aggregator assigns evidence weight per source.
type Source string

const (
	// SourceEbaySold is a completed/sold listing scraped from eBay.
	SourceEbaySold Source = "ebay_sold"
	// SourceKleinanzeigenOffer is an active classifieds asking price.
	SourceKleinanzeigenOffer Source = "kleinanzeigen_offer"
	// SourceKleinanzeigenSoldEstimate is a sold-price estimate derived
	// from classifieds offers.
	SourceKleinanzeigenSoldEstimate Source = "kleinanzeigen_sold_estimate"
)

// # Listing

// Listing is one normalized market observation.
type Listing struct {
	ID        int64      `json:"id,omitempty"`
	CatalogID string     `json:"catalog_id,omitempty"`
	Source    Source     `json:"source"`
	Title     string     `json:"title"`
	PriceEUR  float64    `json:"price_eur"`
	URL       string     `json:"url"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
	FetchedAt time.Time  `json:"fetched_at,omitempty"`
}

// Target describes the catalog entity listings are being collected for.
// It carries the text facets the relevance filters match against.
type Target struct {
	CatalogID string
	Title     string
	Series    string
	Aliases   []string
}
