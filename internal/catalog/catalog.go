// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

/*
Package catalog manages the canonical registry of collectible audio figures.

Every other domain (resolution, recognition, pricing) keys its data on the
catalog entity ID, so this package is the single source of identity truth.
The registry is append-only: entities are retired or deprecated, never
deleted, so historical listings and snapshots always stay resolvable.
*/
package catalog

import "time"

// # Availability

// Availability states mirror the product lifecycle of a figure.
const (
	AvailabilityActive  = "active"
	AvailabilityLimited = "limited"
	AvailabilityRetired = "retired"
)

// # Entity

// Entity is a single canonical catalog figure.
type Entity struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Series            string    `json:"series,omitempty"`
	Aliases           []string  `json:"aliases,omitempty"`
	AvailabilityState string    `json:"availability_state"`
	Deprecated        bool      `json:"deprecated,omitempty"`
	CreatedAt         time.Time `json:"-"`
}

// DisplayName returns "Series Title" when a series is present, else the title.
func (entity *Entity) DisplayName() string {
	if entity.Series != "" {
		return entity.Series + " - " + entity.Title
	}
	return entity.Title
}

// Rarity derives a collector-facing rarity label from the availability state.
// Retired figures are the ones that command secondary-market premiums.
func (entity *Entity) Rarity() string {
	switch entity.AvailabilityState {
	case AvailabilityRetired:
		return "retired"
	case AvailabilityLimited:
		return "limited_edition"
	default:
		return "standard"
	}
}
