// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

// Package schema defines table and column name constants for query building.
//
// Centralizing identifiers here keeps repository SQL free of typo-prone
// string literals and makes schema renames a one-file change.
package schema

// CatalogEntityTable represents the 'catalog_entities' table
type CatalogEntityTable struct {
	Table             string
	ID                string
	Title             string
	Series            string
	Aliases           string
	AvailabilityState string
	Deprecated        string
	CreatedAt         string
}

// CatalogEntity is the schema definition for catalog_entities
var CatalogEntity = CatalogEntityTable{
	Table:             "catalog_entities",
	ID:                "id",
	Title:             "title",
	Series:            "series",
	Aliases:           "aliases",
	AvailabilityState: "availability_state",
	Deprecated:        "deprecated",
	CreatedAt:         "created_at",
}

func (t CatalogEntityTable) Columns() []string {
	return []string{t.ID, t.Title, t.Series, t.Aliases, t.AvailabilityState, t.Deprecated, t.CreatedAt}
}
