// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import "context"

// Repository is the persistence contract for snapshots and telemetry.
type Repository interface {
	// UpsertSnapshot stores the latest snapshot per entity/condition.
	UpsertSnapshot(context context.Context, snapshot *Snapshot) error

	// GetSnapshot returns the stored snapshot, or dberr.ErrNotFound.
	GetSnapshot(context context.Context, catalogID string, condition Condition) (*Snapshot, error)

	// InsertEvent records one pricing computation.
	InsertEvent(context context.Context, event *Event) error

	// QualityReport aggregates recent pricing events.
	QualityReport(context context.Context, window int) (*QualityReport, error)
}

// QualityReport summarizes recent pricing computations for operators.
type QualityReport struct {
	Window        int            `json:"window"`
	Total         int            `json:"total"`
	BySource      map[string]int `json:"by_source"`
	FallbackCount int            `json:"fallback_count"`
	FallbackRate  float64        `json:"fallback_rate"`
	LowSampleRate float64        `json:"low_sample_rate"`
	AvgLatencyMS  float64        `json:"avg_latency_ms"`
}
