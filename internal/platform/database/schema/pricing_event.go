// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package schema

// PricingEventTable represents the 'pricing_events' table
type PricingEventTable struct {
	Table      string
	ID         string
	CatalogID  string
	Condition  string
	Source     string
	SampleSize string
	LatencyMS  string
	CreatedAt  string
}

// PricingEvent is the schema definition for pricing_events
var PricingEvent = PricingEventTable{
	Table:      "pricing_events",
	ID:         "id",
	CatalogID:  "catalog_id",
	Condition:  "condition",
	Source:     "source",
	SampleSize: "sample_size",
	LatencyMS:  "latency_ms",
	CreatedAt:  "created_at",
}

func (t PricingEventTable) Columns() []string {
	return []string{t.ID, t.CatalogID, t.Condition, t.Source, t.SampleSize, t.LatencyMS, t.CreatedAt}
}
