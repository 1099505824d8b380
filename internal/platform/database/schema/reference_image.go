// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package schema

// ReferenceImageTable represents the 'reference_images' table
type ReferenceImageTable struct {
	Table     string
	ID        string
	CatalogID string
	Path      string
	DHash     string
	MeanR     string
	MeanG     string
	MeanB     string
	IndexedAt string
}

// ReferenceImage is the schema definition for reference_images
var ReferenceImage = ReferenceImageTable{
	Table:     "reference_images",
	ID:        "id",
	CatalogID: "catalog_id",
	Path:      "path",
	DHash:     "dhash",
	MeanR:     "mean_r",
	MeanG:     "mean_g",
	MeanB:     "mean_b",
	IndexedAt: "indexed_at",
}

func (t ReferenceImageTable) Columns() []string {
	return []string{t.ID, t.CatalogID, t.Path, t.DHash, t.MeanR, t.MeanG, t.MeanB, t.IndexedAt}
}
