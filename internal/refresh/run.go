// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

// Package refresh coordinates market data collection runs: one
// single-flight run per scope, with progress tracking, an audit trail,
// and an optional background schedule.
package refresh

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run statuses. A run is terminal in completed or
// completed_with_errors; idle is only ever reported, never stored.
const (
	StatusIdle                = "idle"
	StatusRunning             = "running"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// Run is the progress record of one refresh execution. Scope is empty
// for catalog-wide runs, or a catalog id for single-entity runs.
type Run struct {
	RunID      string     `json:"run_id"`
	Scope      string     `json:"scope"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	SavedRows  int        `json:"saved_rows"`
	PrunedRows int        `json:"pruned_rows"`
	Failures   []string   `json:"failures"`
}

func newRun(scope string) *Run {
	return &Run{
		RunID:     newRunID(),
		Scope:     scope,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Failures:  []string{},
	}
}

// newRunID is a short opaque id, unique enough for log correlation.
func newRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (run *Run) finish() {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if run.Failed > 0 {
		run.Status = StatusCompletedWithErrors
	} else {
		run.Status = StatusCompleted
	}
}

// clone returns a copy safe to hand out while the run keeps mutating.
func (run *Run) clone() *Run {
	copied := *run
	copied.Failures = append([]string(nil), run.Failures...)
	if run.FinishedAt != nil {
		finished := *run.FinishedAt
		copied.FinishedAt = &finished
	}
	return &copied
}
