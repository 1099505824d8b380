// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"context"
	"time"
)

// SourceCoverage aggregates stored listings per source for one entity.
type SourceCoverage struct {
	Source    Source     `json:"source"`
	Listings  int        `json:"listings"`
	NewestAt  *time.Time `json:"newest_at,omitempty"`
	OldestAt  *time.Time `json:"oldest_at,omitempty"`
	MedianEUR float64    `json:"median_eur"`
}

// Repository is the persistence contract for market listings.
type Repository interface {
	// Upsert stores listings, updating title, sold and fetch times on
	// conflict with an existing observation.
	Upsert(context context.Context, listings []Listing) (int, error)

	// ListForEntity returns listings for one entity not older than
	// maxAge, newest first, capped at limit.
	ListForEntity(context context.Context, catalogID string, maxAge time.Duration, limit int) ([]Listing, error)

	// Prune deletes listings fetched before the cutoff and returns the
	// number of removed rows.
	Prune(context context.Context, cutoff time.Time) (int, error)

	// CoverageForEntity aggregates stored listings per source.
	CoverageForEntity(context context.Context, catalogID string, maxAge time.Duration) ([]SourceCoverage, error)

	// EntityIDsWithListings returns the catalog ids that currently have
	// any stored listings within maxAge.
	EntityIDsWithListings(context context.Context, maxAge time.Duration) ([]string, error)
}
