// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package refresh

import "context"

// Repository persists the refresh-run audit trail.
type Repository interface {
	// UpsertRun writes the current run state, keyed by run id. Called
	// repeatedly while a run progresses.
	UpsertRun(context context.Context, run *Run) error

	// ListRecent returns the latest runs, newest first.
	ListRecent(context context.Context, limit int) ([]*Run, error)
}
