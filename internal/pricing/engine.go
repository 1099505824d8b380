// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"math"

	"github.com/toniewert/toniewert/internal/market"
)

// # Aggregation Engine

// EngineOptions carry the evidence thresholds and cleaning parameters.
type EngineOptions struct {
	MinPriceEUR         float64
	MaxPriceEUR         float64
	IQRFactor           float64
	MinSamples          int
	MinEffectiveSamples float64
	SourceWeights       map[string]float64
	DefaultWeight       float64
}

// Engine aggregates cleaned market observations into price bands.
// It is stateless and safe for concurrent use.
type Engine struct {
	opts EngineOptions
}

// NewEngine builds the aggregation engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.MinSamples <= 0 {
		opts.MinSamples = 5
	}
	if opts.MinEffectiveSamples <= 0 {
		opts.MinEffectiveSamples = float64(opts.MinSamples)
	}
	if opts.IQRFactor <= 0 {
		opts.IQRFactor = 1.8
	}
	return &Engine{opts: opts}
}

// Estimate is the numeric outcome of one aggregation pass, before it is
// persisted as a snapshot.
type Estimate struct {
	Q25                 float64
	Q50                 float64
	Q75                 float64
	SampleSize          int
	EffectiveSampleSize float64
	Source              string
}

/*
Aggregate computes condition-adjusted price bands from the given
observations.

The sample is cleaned per source (plausibility band plus IQR trim), then
aggregated along a preference ladder:

  - enough cleaned sold observations alone → sold-only quantiles,
  - otherwise all sources blended by weight,
  - offer-only mixes use a relaxed effective threshold because asking
    prices systematically overstate the market anyway.

Returns false when the evidence gate fails; the caller then falls
through to the offer estimator or the named fallback.
*/
func (engine *Engine) Aggregate(listings []market.Listing, condition Condition) (*Estimate, bool) {
	cleaned := engine.cleanBySource(listings)

	soldPrices := cleaned[market.SourceEbaySold]
	if len(soldPrices) >= engine.opts.MinSamples {
		estimate := engine.quantilesFromPrices(soldPrices, condition)
		estimate.Source = SourceSoldLive
		estimate.EffectiveSampleSize = round2(float64(len(soldPrices)) * engine.sourceWeight(market.SourceEbaySold))
		return estimate, true
	}

	points := make([]WeightedPoint, 0, len(listings))
	rawSampleSize := 0
	effective := 0.0
	offerOnly := len(soldPrices) == 0

	for source, prices := range cleaned {
		weight := engine.sourceWeight(source)
		if weight <= 0 {
			continue
		}
		for _, price := range prices {
			points = append(points, WeightedPoint{Value: price, Weight: weight})
		}
		rawSampleSize += len(prices)
		effective += float64(len(prices)) * weight
	}
	effective = round2(effective)

	minEffective := engine.opts.MinEffectiveSamples
	if offerOnly {
		minEffective = math.Max(1.5, 0.45*minEffective)
	}
	if rawSampleSize < engine.opts.MinSamples || effective < minEffective {
		return nil, false
	}

	factor := condition.Factor()
	estimate := &Estimate{
		Q25:                 round2(WeightedQuantile(points, 0.25) * factor),
		Q50:                 round2(WeightedQuantile(points, 0.50) * factor),
		Q75:                 round2(WeightedQuantile(points, 0.75) * factor),
		SampleSize:          rawSampleSize,
		EffectiveSampleSize: effective,
		Source:              SourceBlendedLive,
	}
	if offerOnly {
		estimate.Source = SourceOfferOnlyLive
	}
	return estimate, true
}

/*
OfferEstimate derives a degraded estimate from active offers alone.

Asking prices overstate realized prices, so the quantiles are scaled by
a negotiation discount of 0.84, dampened further for thin samples
(liquidity factor) and for volatile spreads (volatility factor keyed on
the IQR-to-median ratio). Requires at least max(4, MinSamples-1) cleaned
offers.
*/
func (engine *Engine) OfferEstimate(listings []market.Listing, condition Condition) (*Estimate, bool) {
	offers := make([]float64, 0, len(listings))
	for _, listing := range listings {
		if listing.Source == market.SourceKleinanzeigenOffer {
			offers = append(offers, listing.PriceEUR)
		}
	}

	cleaned := engine.cleanPrices(offers)
	required := engine.opts.MinSamples - 1
	if required < 4 {
		required = 4
	}
	if len(cleaned) < required {
		return nil, false
	}

	q25 := Quantile(cleaned, 0.25)
	q50 := Quantile(cleaned, 0.50)
	q75 := Quantile(cleaned, 0.75)

	liquidity := math.Min(1.0, 0.92+math.Min(float64(len(cleaned)), 20)*0.004)
	spread := (q75 - q25) / math.Max(1, q50)
	volatility := math.Max(0.86, 1-math.Min(0.5, spread)*0.22)
	adjustment := 0.84 * liquidity * volatility

	factor := condition.Factor()
	weight := engine.sourceWeight(market.SourceKleinanzeigenOffer)

	return &Estimate{
		Q25:                 round2(q25 * adjustment * factor),
		Q50:                 round2(q50 * adjustment * factor),
		Q75:                 round2(q75 * adjustment * factor),
		SampleSize:          len(cleaned),
		EffectiveSampleSize: round2(float64(len(cleaned)) * weight),
		Source:              SourceOfferEstimate,
	}, true
}

func (engine *Engine) quantilesFromPrices(prices []float64, condition Condition) *Estimate {
	factor := condition.Factor()
	return &Estimate{
		Q25:        round2(Quantile(prices, 0.25) * factor),
		Q50:        round2(Quantile(prices, 0.50) * factor),
		Q75:        round2(Quantile(prices, 0.75) * factor),
		SampleSize: len(prices),
	}
}

func (engine *Engine) cleanBySource(listings []market.Listing) map[market.Source][]float64 {
	grouped := make(map[market.Source][]float64)
	for _, listing := range listings {
		grouped[listing.Source] = append(grouped[listing.Source], listing.PriceEUR)
	}

	cleaned := make(map[market.Source][]float64, len(grouped))
	for source, prices := range grouped {
		if trimmed := engine.cleanPrices(prices); len(trimmed) > 0 {
			cleaned[source] = trimmed
		}
	}
	return cleaned
}

func (engine *Engine) cleanPrices(prices []float64) []float64 {
	return market.TrimOutliersIQR(prices, market.TrimOptions{
		MinEUR:     engine.opts.MinPriceEUR,
		MaxEUR:     engine.opts.MaxPriceEUR,
		IQRFactor:  engine.opts.IQRFactor,
		MinSamples: engine.opts.MinSamples,
	})
}

// sourceWeight fails closed to the default for unknown sources.
func (engine *Engine) sourceWeight(source market.Source) float64 {
	if weight, found := engine.opts.SourceWeights[string(source)]; found {
		return weight
	}
	return engine.opts.DefaultWeight
}
