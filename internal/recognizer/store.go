// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package recognizer

import (
	"context"
	"time"
)

// Reference is one indexed reference image row.
type Reference struct {
	ID        int64
	CatalogID string
	Path      string
	DHash     string
	MeanRGB   [3]float64
	IndexedAt time.Time
}

type Repository interface {
	ListAll(context context.Context) ([]Reference, error)
	// ReplaceAll atomically swaps the whole index for a freshly built one.
	ReplaceAll(context context.Context, references []Reference) error
}
