// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package schema

// RefreshRunTable represents the 'refresh_runs' table
type RefreshRunTable struct {
	Table      string
	RunID      string
	Scope      string
	Status     string
	StartedAt  string
	FinishedAt string
	Total      string
	Processed  string
	Successful string
	Failed     string
	SavedRows  string
	PrunedRows string
	Failures   string
	CreatedAt  string
	UpdatedAt  string
}

// RefreshRun is the schema definition for refresh_runs
var RefreshRun = RefreshRunTable{
	Table:      "refresh_runs",
	RunID:      "run_id",
	Scope:      "scope",
	Status:     "status",
	StartedAt:  "started_at",
	FinishedAt: "finished_at",
	Total:      "total",
	Processed:  "processed",
	Successful: "successful",
	Failed:     "failed",
	SavedRows:  "saved_rows",
	PrunedRows: "pruned_rows",
	Failures:   "failures",
	CreatedAt:  "created_at",
	UpdatedAt:  "updated_at",
}

func (t RefreshRunTable) Columns() []string {
	return []string{
		t.RunID, t.Scope, t.Status, t.StartedAt, t.FinishedAt,
		t.Total, t.Processed, t.Successful, t.Failed,
		t.SavedRows, t.PrunedRows, t.Failures, t.CreatedAt, t.UpdatedAt,
	}
}
