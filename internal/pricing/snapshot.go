// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import "time"

// Source labels for price snapshots. The label encodes provenance and
// estimator so that clients and telemetry can tell the evidence classes
// apart.
const (
	SourceSoldLive          = "ebay_sold_live_q25_q50_q75"
	SourceBlendedLive       = "market_live_blended_weighted"
	SourceOfferOnlyLive     = "market_live_offer_only_weighted"
	SourceOfferEstimate     = "kleinanzeigen_offer_estimate_v1"
	SourceFallbackNoData    = "fallback_no_live_market_data"
	sourceCachedBase        = "ebay_sold_cached"
	sourceSuffixBlended     = "_blended_weighted"
	sourceSuffixOfferOnly   = "_offer_only_weighted"
	sourceCachedQuantileTag = "_q25_q50_q75"
)

// Snapshot is the persisted result of one pricing computation for an
// entity/condition pair. Quantiles are nil in fallback mode: the system
// refuses to assert a number without evidence.
type Snapshot struct {
	CatalogID           string    `json:"catalog_id"`
	Condition           string    `json:"condition"`
	Q25                 *float64  `json:"q25"`
	Q50                 *float64  `json:"q50"`
	Q75                 *float64  `json:"q75"`
	SampleSize          int       `json:"sample_size"`
	EffectiveSampleSize float64   `json:"effective_sample_size"`
	Source              string    `json:"source"`
	QualityTier         string    `json:"quality_tier"`
	ConfidenceScore     float64   `json:"confidence_score"`
	ComputedAt          time.Time `json:"computed_at"`
}

// HasPrice reports whether the snapshot asserts numeric price bands.
func (snapshot *Snapshot) HasPrice() bool {
	return snapshot.Q25 != nil && snapshot.Q50 != nil && snapshot.Q75 != nil
}

// CachedSourceLabel rewrites a live source label for cache-served
// responses, optionally marking it stale, while keeping the estimator
// suffix recognizable.
func CachedSourceLabel(liveSource string, stale bool) string {
	label := sourceCachedBase
	if stale {
		label += "_stale"
	}
	label += sourceCachedQuantileTag

	switch liveSource {
	case SourceBlendedLive:
		return label + sourceSuffixBlended
	case SourceOfferOnlyLive, SourceOfferEstimate:
		return label + sourceSuffixOfferOnly
	default:
		return label
	}
}

// Event is one telemetry row per pricing computation.
type Event struct {
	CatalogID  string
	Condition  string
	Source     string
	SampleSize int
	LatencyMS  int64
	CreatedAt  time.Time
}
