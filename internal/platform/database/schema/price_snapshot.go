// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package schema

// PriceSnapshotTable represents the 'price_snapshots' table
type PriceSnapshotTable struct {
	Table               string
	CatalogID           string
	Condition           string
	Q25                 string
	Q50                 string
	Q75                 string
	SampleSize          string
	EffectiveSampleSize string
	Source              string
	QualityTier         string
	ConfidenceScore     string
	ComputedAt          string
}

// PriceSnapshot is the schema definition for price_snapshots
var PriceSnapshot = PriceSnapshotTable{
	Table:               "price_snapshots",
	CatalogID:           "catalog_id",
	Condition:           "condition",
	Q25:                 "q25",
	Q50:                 "q50",
	Q75:                 "q75",
	SampleSize:          "sample_size",
	EffectiveSampleSize: "effective_sample_size",
	Source:              "source",
	QualityTier:         "quality_tier",
	ConfidenceScore:     "confidence_score",
	ComputedAt:          "computed_at",
}

func (t PriceSnapshotTable) Columns() []string {
	return []string{
		t.CatalogID, t.Condition, t.Q25, t.Q50, t.Q75,
		t.SampleSize, t.EffectiveSampleSize, t.Source,
		t.QualityTier, t.ConfidenceScore, t.ComputedAt,
	}
}
