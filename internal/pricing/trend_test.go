// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/pricing"
)

func trendPoints(prices ...float64) []pricing.TrendPoint {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]pricing.TrendPoint, 0, len(prices))
	for index, price := range prices {
		points = append(points, pricing.TrendPoint{
			PriceEUR:  price,
			FetchedAt: base.AddDate(0, 0, index),
		})
	}
	return points
}

/*
TestDeriveTrend compares older and newer median halves against the
direction thresholds.
*/
func TestDeriveTrend(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		trend := pricing.DeriveTrend(trendPoints(10, 11, 12))

		assert.Equal(t, "right", trend.Direction)
		assert.Equal(t, "konstant", trend.Label)
		assert.Nil(t, trend.Delta)
	})

	t.Run("clear rise", func(t *testing.T) {
		trend := pricing.DeriveTrend(trendPoints(10, 10, 12, 12))

		require.NotNil(t, trend.Delta)
		assert.Equal(t, "up", trend.Direction)
		assert.Equal(t, "steigend", trend.Label)
		assert.InDelta(t, 0.2, *trend.Delta, 0.0001)
	})

	t.Run("slight rise", func(t *testing.T) {
		trend := pricing.DeriveTrend(trendPoints(20, 20, 21, 21))

		assert.Equal(t, "up_right", trend.Direction)
		assert.Equal(t, "leicht steigend", trend.Label)
	})

	t.Run("clear fall", func(t *testing.T) {
		trend := pricing.DeriveTrend(trendPoints(20, 20, 16, 16))

		assert.Equal(t, "down", trend.Direction)
		assert.Equal(t, "sinkend", trend.Label)
	})

	t.Run("slight fall", func(t *testing.T) {
		trend := pricing.DeriveTrend(trendPoints(20, 20, 19, 19))

		assert.Equal(t, "down_right", trend.Direction)
		assert.Equal(t, "eher sinkend", trend.Label)
	})

	t.Run("flat", func(t *testing.T) {
		trend := pricing.DeriveTrend(trendPoints(20, 20, 20.2, 20.2))

		assert.Equal(t, "right", trend.Direction)
		assert.Equal(t, "konstant", trend.Label)
		require.NotNil(t, trend.Delta)
		assert.InDelta(t, 0.01, *trend.Delta, 0.0001)
	})

	t.Run("unsorted input", func(t *testing.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		points := []pricing.TrendPoint{
			{PriceEUR: 12, FetchedAt: base.AddDate(0, 0, 3)},
			{PriceEUR: 10, FetchedAt: base},
			{PriceEUR: 12, FetchedAt: base.AddDate(0, 0, 2)},
			{PriceEUR: 10, FetchedAt: base.AddDate(0, 0, 1)},
		}
		trend := pricing.DeriveTrend(points)

		assert.Equal(t, "up", trend.Direction, "points are ordered by fetch time first")
	})
}
