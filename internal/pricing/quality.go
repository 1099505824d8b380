// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"math"
	"strings"
)

// Quality tiers and their letter bands. The tier drives how clients
// present the estimate; the band is the coarse badge.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

/*
DeriveQuality maps a snapshot's provenance and sample mass to a quality
tier and confidence score.

The table is ordered from weakest provenance to strongest: fallback and
stale labels cap the tier regardless of sample mass, estimator labels
earn medium at best, and only live sold-dominated samples can reach
high. Confidence grows sub-linearly with effective samples and is capped
per provenance class.
*/
func DeriveQuality(source string, effectiveSamples float64, sampleSize int) (string, float64) {
	samples := float64(sampleSize)

	switch {
	case source == SourceFallbackNoData:
		return TierLow, 0.15

	case strings.Contains(source, "local_fallback"):
		return TierLow, 0.05

	case strings.Contains(source, "stale"):
		if effectiveSamples >= 8 {
			return TierMedium, 0.55
		}
		return TierLow, 0.35

	case strings.Contains(source, "offer_estimate"):
		switch {
		case samples >= 12:
			return TierMedium, math.Min(0.72, 0.50+math.Min(samples, 30)/180)
		case samples >= 6:
			return TierMedium, math.Min(0.64, 0.45+math.Min(samples, 20)/220)
		default:
			return TierLow, math.Min(0.48, 0.25+math.Min(samples, 10)/220)
		}

	case strings.Contains(source, "offer_only_weighted"):
		if effectiveSamples >= 6 {
			return TierMedium, math.Min(0.68, 0.48+math.Min(effectiveSamples, 20)/180)
		}
		return TierLow, math.Min(0.50, 0.24+math.Min(effectiveSamples, 10)/200)

	case strings.Contains(source, "blended_weighted"):
		switch {
		case effectiveSamples >= 12:
			return TierHigh, math.Min(0.94, 0.66+math.Min(effectiveSamples, 40)/120)
		case effectiveSamples >= 5:
			return TierMedium, math.Min(0.78, 0.42+math.Min(effectiveSamples, 20)/120)
		default:
			return TierLow, math.Min(0.50, 0.20+math.Min(effectiveSamples, 10)/100)
		}

	case strings.Contains(source, "ebay") && effectiveSamples >= 12:
		return TierHigh, math.Min(0.98, 0.70+math.Min(effectiveSamples, 40)/100)

	case strings.Contains(source, "ebay") && effectiveSamples >= 5:
		return TierMedium, math.Min(0.80, 0.45+math.Min(effectiveSamples, 20)/100)

	default:
		best := math.Max(effectiveSamples, samples)
		return TierLow, math.Min(0.50, 0.20+math.Min(best, 10)/100)
	}
}

// QualityBand compresses a tier into the letter badge used in API
// responses.
func QualityBand(tier string) string {
	switch tier {
	case TierHigh:
		return "A"
	case TierMedium:
		return "B"
	default:
		return "C"
	}
}
