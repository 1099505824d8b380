// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

// Package pricing turns cleaned market observations into a three-band
// price estimate with an explicit quality signal. The aggregator never
// fabricates a confident number: below the evidence thresholds it
// degrades through a named estimator chain instead.
package pricing

import (
	"math"
	"sort"
)

// WeightedPoint is one price observation with its source weight.
type WeightedPoint struct {
	Value  float64
	Weight float64
}

// Quantile computes a linear-interpolated quantile over unsorted values.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q < 0 {
		q = 0
	} else if q > 1 {
		q = 1
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

/*
WeightedQuantile computes a quantile over weighted points.

Points are sorted by value (weight as tie breaker, so the result is
deterministic for equal prices) and the quantile is located on the
cumulative weight axis: the point whose cumulative weight first reaches
target = totalWeight·q, linearly interpolated from its predecessor by
the fraction of that point's weight the target consumes.
*/
func WeightedQuantile(points []WeightedPoint, q float64) float64 {
	if len(points) == 0 {
		return 0
	}
	if len(points) == 1 {
		return points[0].Value
	}

	sorted := make([]WeightedPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value < sorted[j].Value
		}
		return sorted[i].Weight < sorted[j].Weight
	})

	total := 0.0
	for _, point := range sorted {
		total += point.Weight
	}
	if total <= 0 {
		return sorted[len(sorted)/2].Value
	}

	if q < 0 {
		q = 0
	} else if q > 1 {
		q = 1
	}
	target := total * q

	running := 0.0
	previous := sorted[0].Value
	for index, point := range sorted {
		next := running + point.Weight
		if next >= target {
			if index == 0 || point.Weight <= 0 {
				return point.Value
			}
			localQ := (target - running) / point.Weight
			return previous + (point.Value-previous)*localQ
		}
		running = next
		previous = point.Value
	}

	return sorted[len(sorted)-1].Value
}
