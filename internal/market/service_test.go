// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/market"
	"github.com/toniewert/toniewert/internal/platform/apperr"
)

type fakeMarketRepository struct {
	saved    []market.Listing
	coverage []market.SourceCoverage
	pruned   int
}

func (repo *fakeMarketRepository) Upsert(_ context.Context, listings []market.Listing) (int, error) {
	repo.saved = append(repo.saved, listings...)
	return len(listings), nil
}

func (repo *fakeMarketRepository) ListForEntity(_ context.Context, catalogID string, _ time.Duration, _ int) ([]market.Listing, error) {
	out := make([]market.Listing, 0)
	for _, listing := range repo.saved {
		if listing.CatalogID == catalogID {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (repo *fakeMarketRepository) Prune(_ context.Context, _ time.Time) (int, error) {
	return repo.pruned, nil
}

func (repo *fakeMarketRepository) CoverageForEntity(_ context.Context, _ string, _ time.Duration) ([]market.SourceCoverage, error) {
	return repo.coverage, nil
}

func (repo *fakeMarketRepository) EntityIDsWithListings(_ context.Context, _ time.Duration) ([]string, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, listing := range repo.saved {
		if _, dup := seen[listing.CatalogID]; !dup {
			seen[listing.CatalogID] = struct{}{}
			ids = append(ids, listing.CatalogID)
		}
	}
	return ids, nil
}

func serviceOptions() market.ServiceOptions {
	return market.ServiceOptions{
		HistoryDays: 180,
		WindowDays:  90,
		MaxItems:    80,
		SourceWeights: map[string]float64{
			"ebay_sold":           1.0,
			"kleinanzeigen_offer": 0.35,
		},
		DefaultWeight:          1.0,
		TargetEffectiveSamples: 5,
	}
}

/*
TestService_CollectForEntity fetches from all adapters, applies the
pollution and relevance gates and persists only matching rows tagged
with the entity id.
*/
func TestService_CollectForEntity(t *testing.T) {
	now := time.Now().UTC()
	fake := &fakeAdapter{
		source: market.SourceEbaySold,
		pages: map[string][]market.Listing{
			"Hexe Lilli - Lilli und der Zauberspruch Tonie": {
				{Title: "Tonie Hexe Lilli Zauberspruch", PriceEUR: 19.99,
					URL: "https://www.ebay.de/itm/111111111111", SoldAt: &now, FetchedAt: now},
				{Title: "Tonie Konvolut 5 Figuren", PriceEUR: 60.00,
					URL: "https://www.ebay.de/itm/222222222222", SoldAt: &now, FetchedAt: now},
				{Title: "Tonie Gruffalo Hörfigur", PriceEUR: 15.00,
					URL: "https://www.ebay.de/itm/333333333333", SoldAt: &now, FetchedAt: now},
			},
		},
	}

	repo := &fakeMarketRepository{}
	service := market.NewService(repo, []market.Adapter{fake}, serviceOptions(), testLogger())

	target := market.Target{
		CatalogID: "tn_004",
		Title:     "Hexe Lilli - Lilli und der Zauberspruch",
		Series:    "Hexe Lilli",
		Aliases:   []string{"lilli"},
	}

	saved, err := service.CollectForEntity(context.Background(), target)
	require.NoError(t, err)

	// 1. Bundle and wrong-entity rows are filtered out.
	require.Equal(t, 1, saved)
	require.Len(t, repo.saved, 1)

	// 2. The surviving row is tagged with the catalog id.
	assert.Equal(t, "tn_004", repo.saved[0].CatalogID)
	assert.Equal(t, "Tonie Hexe Lilli Zauberspruch", repo.saved[0].Title)
}

/*
TestService_CacheStatusForEntity weights stored listings per source and
compares the effective mass against the coverage target.
*/
func TestService_CacheStatusForEntity(t *testing.T) {
	repo := &fakeMarketRepository{
		coverage: []market.SourceCoverage{
			{Source: market.SourceEbaySold, Listings: 4},
			{Source: market.SourceKleinanzeigenOffer, Listings: 10},
		},
	}
	service := market.NewService(repo, nil, serviceOptions(), testLogger())

	status, err := service.CacheStatusForEntity(context.Background(), "tn_004")
	require.NoError(t, err)

	assert.Equal(t, 14, status.TotalListings)
	assert.InDelta(t, 4.0*1.0+10.0*0.35, status.EffectiveSamples, 0.001)
	assert.True(t, status.Covered, "7.5 effective samples exceed the target of 5")
}

/*
TestService_CacheStatusRequiresCatalogID rejects a blank entity id at
the service boundary.
*/
func TestService_CacheStatusRequiresCatalogID(t *testing.T) {
	service := market.NewService(&fakeMarketRepository{}, nil, serviceOptions(), testLogger())

	_, err := service.CacheStatusForEntity(context.Background(), "")
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}
