// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package schema

// MarketListingTable represents the 'market_listings' table
type MarketListingTable struct {
	Table     string
	ID        string
	CatalogID string
	Source    string
	Title     string
	PriceEUR  string
	URL       string
	SoldAt    string
	FetchedAt string
	CreatedAt string
}

// MarketListing is the schema definition for market_listings
var MarketListing = MarketListingTable{
	Table:     "market_listings",
	ID:        "id",
	CatalogID: "catalog_id",
	Source:    "source",
	Title:     "title",
	PriceEUR:  "price_eur",
	URL:       "url",
	SoldAt:    "sold_at",
	FetchedAt: "fetched_at",
	CreatedAt: "created_at",
}

func (t MarketListingTable) Columns() []string {
	return []string{t.ID, t.CatalogID, t.Source, t.Title, t.PriceEUR, t.URL, t.SoldAt, t.FetchedAt, t.CreatedAt}
}
