// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toniewert/toniewert/internal/pricing"
)

/*
TestDeriveQuality walks the provenance table from weakest to strongest
evidence class.
*/
func TestDeriveQuality(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		effective  float64
		samples    int
		wantTier   string
		wantScore  float64
		scoreDelta float64
	}{
		{"fallback", "fallback_no_live_market_data", 0, 0, "low", 0.15, 0.001},
		{"stale thin", "ebay_sold_cached_stale_q25_q50_q75", 4, 6, "low", 0.35, 0.001},
		{"stale solid", "ebay_sold_cached_stale_q25_q50_q75", 9, 12, "medium", 0.55, 0.001},
		{"offer estimate tiny", "kleinanzeigen_offer_estimate_v1", 1.4, 4, "low", 0.25 + 4.0/220, 0.001},
		{"offer estimate mid", "kleinanzeigen_offer_estimate_v1", 2.5, 8, "medium", 0.45 + 8.0/220, 0.001},
		{"offer estimate large", "kleinanzeigen_offer_estimate_v1", 5, 14, "medium", 0.50 + 14.0/180, 0.001},
		{"offer only thin", "market_live_offer_only_weighted", 3, 9, "low", 0.24 + 3.0/200, 0.001},
		{"offer only solid", "market_live_offer_only_weighted", 7, 20, "medium", 0.48 + 7.0/180, 0.001},
		{"blended thin", "market_live_blended_weighted", 3, 6, "low", 0.20 + 3.0/100, 0.001},
		{"blended medium", "market_live_blended_weighted", 8, 11, "medium", 0.42 + 8.0/120, 0.001},
		{"blended high", "market_live_blended_weighted", 20, 24, "high", 0.66 + 20.0/120, 0.001},
		{"sold high", "ebay_sold_live_q25_q50_q75", 15, 15, "high", 0.70 + 15.0/100, 0.001},
		{"sold medium", "ebay_sold_live_q25_q50_q75", 6, 6, "medium", 0.45 + 6.0/100, 0.001},
		{"unknown source", "mystery", 2, 3, "low", 0.20 + 3.0/100, 0.001},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tier, score := pricing.DeriveQuality(tc.source, tc.effective, tc.samples)

			assert.Equal(t, tc.wantTier, tier)
			assert.InDelta(t, tc.wantScore, score, tc.scoreDelta)
		})
	}
}

/*
TestDeriveQuality_ConfidenceCaps verifies the per-class ceilings hold
for very large samples.
*/
func TestDeriveQuality_ConfidenceCaps(t *testing.T) {
	_, soldScore := pricing.DeriveQuality("ebay_sold_live_q25_q50_q75", 500, 500)
	assert.InDelta(t, 0.98, soldScore, 0.001)

	_, blendedScore := pricing.DeriveQuality("market_live_blended_weighted", 500, 500)
	assert.InDelta(t, 0.94, blendedScore, 0.001)

	_, estimateScore := pricing.DeriveQuality("kleinanzeigen_offer_estimate_v1", 500, 500)
	assert.InDelta(t, 0.50+30.0/180, estimateScore, 0.001)
}

/*
TestQualityBand maps tiers to their letter badges.
*/
func TestQualityBand(t *testing.T) {
	assert.Equal(t, "A", pricing.QualityBand("high"))
	assert.Equal(t, "B", pricing.QualityBand("medium"))
	assert.Equal(t, "C", pricing.QualityBand("low"))
	assert.Equal(t, "C", pricing.QualityBand("anything-else"))
}
