// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/market"
	"github.com/toniewert/toniewert/internal/pricing"
)

func testEngine() *pricing.Engine {
	return pricing.NewEngine(pricing.EngineOptions{
		MinPriceEUR:         3.0,
		MaxPriceEUR:         250.0,
		IQRFactor:           1.8,
		MinSamples:          5,
		MinEffectiveSamples: 5.0,
		SourceWeights: map[string]float64{
			"ebay_sold":                   1.0,
			"kleinanzeigen_offer":         0.35,
			"kleinanzeigen_sold_estimate": 0.45,
		},
		DefaultWeight: 1.0,
	})
}

func soldListings(prices ...float64) []market.Listing {
	listings := make([]market.Listing, 0, len(prices))
	for _, price := range prices {
		listings = append(listings, market.Listing{Source: market.SourceEbaySold, PriceEUR: price})
	}
	return listings
}

func offerListings(prices ...float64) []market.Listing {
	listings := make([]market.Listing, 0, len(prices))
	for _, price := range prices {
		listings = append(listings, market.Listing{Source: market.SourceKleinanzeigenOffer, PriceEUR: price})
	}
	return listings
}

/*
TestEngine_Aggregate_SoldOnly prefers the sold sample when it alone
meets the minimum.
*/
func TestEngine_Aggregate_SoldOnly(t *testing.T) {
	engine := testEngine()
	listings := append(soldListings(10, 12, 12, 14, 16), offerListings(40, 45)...)

	estimate, ok := engine.Aggregate(listings, pricing.ConditionVeryGood)
	require.True(t, ok)

	// 1. Sold-only path: offers do not move the quantiles.
	assert.Equal(t, pricing.SourceSoldLive, estimate.Source)
	assert.InDelta(t, 12.0, estimate.Q50, 0.001)
	assert.Equal(t, 5, estimate.SampleSize)
	assert.InDelta(t, 5.0, estimate.EffectiveSampleSize, 0.001)
}

/*
TestEngine_Aggregate_EffectiveSampleGate rejects a sample whose raw
count passes but whose weighted mass does not.
*/
func TestEngine_Aggregate_EffectiveSampleGate(t *testing.T) {
	engine := testEngine()

	// 3 sold + 4 offers: raw 7 but effective 4.4 < 5.0.
	listings := append(soldListings(10, 12, 14), offerListings(20, 22, 24, 26)...)
	_, ok := engine.Aggregate(listings, pricing.ConditionVeryGood)
	assert.False(t, ok, "weighted evidence below threshold must not price")

	// Adding sold mass lifts the effective count over the gate.
	listings = append(soldListings(10, 12, 14, 15), offerListings(20, 22, 24, 26)...)
	estimate, ok := engine.Aggregate(listings, pricing.ConditionVeryGood)
	require.True(t, ok)
	assert.Equal(t, pricing.SourceBlendedLive, estimate.Source)
	assert.InDelta(t, 4.0*1.0+4.0*0.35, estimate.EffectiveSampleSize, 0.001)
}

/*
TestEngine_Aggregate_OfferOnlyRelaxedGate applies the relaxed effective
threshold when no sold data exists at all.
*/
func TestEngine_Aggregate_OfferOnlyRelaxedGate(t *testing.T) {
	engine := testEngine()

	// 7 offers: raw 7 ≥ 5, effective 2.45 ≥ max(1.5, 0.45·5)=2.25.
	listings := offerListings(18, 19, 20, 21, 22, 23, 24)
	estimate, ok := engine.Aggregate(listings, pricing.ConditionVeryGood)
	require.True(t, ok)

	assert.Equal(t, pricing.SourceOfferOnlyLive, estimate.Source)
	assert.InDelta(t, 2.45, estimate.EffectiveSampleSize, 0.001)
}

/*
TestEngine_ConditionFactorsMonotonic asserts the price ordering from
defective to sealed across the full factor table.
*/
func TestEngine_ConditionFactorsMonotonic(t *testing.T) {
	engine := testEngine()
	listings := soldListings(18, 19, 20, 21, 22, 23)

	order := []pricing.Condition{
		pricing.ConditionDefective, pricing.ConditionPlayed,
		pricing.ConditionGood, pricing.ConditionVeryGood,
		pricing.ConditionNewOpen, pricing.ConditionOVP,
	}

	previous := 0.0
	for _, condition := range order {
		estimate, ok := engine.Aggregate(listings, condition)
		require.True(t, ok, "condition %s", condition)
		assert.Greater(t, estimate.Q50, previous,
			"median for %s must exceed the previous condition", condition)
		previous = estimate.Q50
	}
}

/*
TestEngine_OfferEstimate derives a discounted estimate from offers
below the primary gate.
*/
func TestEngine_OfferEstimate(t *testing.T) {
	engine := testEngine()

	t.Run("too few offers", func(t *testing.T) {
		_, ok := engine.OfferEstimate(offerListings(20, 21, 22), pricing.ConditionVeryGood)
		assert.False(t, ok)
	})

	t.Run("discounted below asking median", func(t *testing.T) {
		offers := offerListings(20, 21, 22, 23)
		estimate, ok := engine.OfferEstimate(offers, pricing.ConditionVeryGood)
		require.True(t, ok)

		assert.Equal(t, pricing.SourceOfferEstimate, estimate.Source)
		assert.Equal(t, 4, estimate.SampleSize)
		assert.Less(t, estimate.Q50, 21.5, "negotiation discount pulls below the asking median")
		assert.Greater(t, estimate.Q50, 15.0)
		assert.LessOrEqual(t, estimate.Q25, estimate.Q50)
		assert.LessOrEqual(t, estimate.Q50, estimate.Q75)
	})

	t.Run("deterministic", func(t *testing.T) {
		offers := offerListings(18, 20, 22, 24, 26)
		first, ok := engine.OfferEstimate(offers, pricing.ConditionGood)
		require.True(t, ok)
		second, ok := engine.OfferEstimate(offers, pricing.ConditionGood)
		require.True(t, ok)
		assert.Equal(t, first, second)
	})
}
