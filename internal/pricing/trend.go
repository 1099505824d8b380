// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"math"
	"sort"
	"time"
)

// TrendPoint is one price observation on the time axis.
type TrendPoint struct {
	PriceEUR  float64
	FetchedAt time.Time
}

// Trend summarizes the recent price direction for display. Delta is nil
// when the sample is too small to compare halves.
type Trend struct {
	Direction string   `json:"direction"`
	Label     string   `json:"label"`
	Delta     *float64 `json:"delta,omitempty"`
}

/*
DeriveTrend compares the median of the older half of observations with
the median of the newer half.

Fewer than four points yield a flat trend without a delta. Thresholds:
±12% for a clear move, ±3% for a slight one.
*/
func DeriveTrend(points []TrendPoint) Trend {
	if len(points) < 4 {
		return Trend{Direction: "right", Label: "konstant"}
	}

	sorted := make([]TrendPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FetchedAt.Before(sorted[j].FetchedAt)
	})

	half := len(sorted) / 2
	olderMedian := medianPrice(sorted[:half])
	newerMedian := medianPrice(sorted[half:])
	if olderMedian <= 0 {
		return Trend{Direction: "right", Label: "konstant"}
	}

	delta := (newerMedian - olderMedian) / olderMedian
	delta = math.Round(delta*10000) / 10000

	trend := Trend{Delta: &delta}
	switch {
	case delta >= 0.12:
		trend.Direction, trend.Label = "up", "steigend"
	case delta >= 0.03:
		trend.Direction, trend.Label = "up_right", "leicht steigend"
	case delta <= -0.12:
		trend.Direction, trend.Label = "down", "sinkend"
	case delta <= -0.03:
		trend.Direction, trend.Label = "down_right", "eher sinkend"
	default:
		trend.Direction, trend.Label = "right", "konstant"
	}
	return trend
}

func medianPrice(points []TrendPoint) float64 {
	prices := make([]float64, 0, len(points))
	for _, point := range points {
		prices = append(prices, point.PriceEUR)
	}
	return Quantile(prices, 0.5)
}
