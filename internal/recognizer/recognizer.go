// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package recognizer

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/platform/apperr"
)

// # Result Contract

const (
	StatusResolved          = "resolved"
	StatusNeedsConfirmation = "needs_confirmation"
	StatusNotFound          = "not_found"
	StatusNotConfigured     = "not_configured"
)

// Candidate is a single scored visual match.
type Candidate struct {
	CatalogID string  `json:"catalog_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// Result is the outcome of one recognition attempt.
type Result struct {
	Status     string      `json:"status"`
	Candidates []Candidate `json:"candidates"`
	Message    string      `json:"message,omitempty"`
}

// IndexStatus describes the readiness of the reference index.
type IndexStatus struct {
	Ready          bool       `json:"ready"`
	ReferenceCount int        `json:"reference_count"`
	EntityCount    int        `json:"entity_count"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// # Scoring Constants

const (
	hashWeight  = 0.86
	colorWeight = 0.14

	// referenceScoreFloor drops reference comparisons that are so weak
	// they would only add noise to the per-entity best score.
	referenceScoreFloor = 0.45
)

// Thresholds are the decision boundaries for recognition statuses.
type Thresholds struct {
	// MinScore is the floor below which the result is not_found.
	MinScore float64
	// ResolvedScore is the score needed to auto-resolve.
	ResolvedScore float64
	// ResolvedGap is the lead over the runner-up needed to auto-resolve.
	ResolvedGap float64
}

// # Service

type indexedReference struct {
	catalogID string
	title     string
	dhash     string
	meanRGB   [3]float64
}

type referenceIndex struct {
	references []indexedReference
	entities   int
	loadedAt   time.Time
}

type Service struct {
	repo       Repository
	catalog    *catalog.Service
	thresholds Thresholds
	logger     *slog.Logger
	index      atomic.Pointer[referenceIndex]
}

func NewService(repo Repository, catalogService *catalog.Service, thresholds Thresholds, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		catalog:    catalogService,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Reload loads reference rows and joins catalog titles into memory.
// An empty result is not an error: the service degrades to not_configured.
func (service *Service) Reload(context context.Context) error {
	references, err := service.repo.ListAll(context)
	if err != nil {
		return err
	}

	entities, err := service.catalog.ListAll(context)
	if err != nil {
		return err
	}

	titles := make(map[string]string, len(entities))
	for _, entity := range entities {
		titles[entity.ID] = entity.Title
	}

	indexed := make([]indexedReference, 0, len(references))
	seen := make(map[string]struct{})
	for _, ref := range references {
		title, known := titles[ref.CatalogID]
		if !known {
			// Reference rows for unknown entities are stale index leftovers.
			continue
		}
		indexed = append(indexed, indexedReference{
			catalogID: ref.CatalogID,
			title:     title,
			dhash:     ref.DHash,
			meanRGB:   ref.MeanRGB,
		})
		seen[ref.CatalogID] = struct{}{}
	}

	service.index.Store(&referenceIndex{
		references: indexed,
		entities:   len(seen),
		loadedAt:   time.Now().UTC(),
	})

	service.logger.Info("recognizer_index_loaded",
		slog.Int("references", len(indexed)),
		slog.Int("entities", len(seen)),
	)
	return nil
}

// Status reports whether the photo recognition path is usable.
func (service *Service) Status() IndexStatus {
	idx := service.index.Load()
	if idx == nil || len(idx.references) == 0 {
		return IndexStatus{
			Ready:   false,
			Message: "No indexed reference images available",
		}
	}

	loadedAt := idx.loadedAt
	return IndexStatus{
		Ready:          true,
		ReferenceCount: len(idx.references),
		EntityCount:    idx.entities,
		LoadedAt:       &loadedAt,
	}
}

/*
Recognize fingerprints the uploaded photo and scores it against every
reference, keeping the best score per catalog entity.

Returns:
  - *Result: resolved | needs_confirmation | not_found | not_configured
  - error: apperr.ValidationError when the payload is not a decodable image
*/
func (service *Service) Recognize(_ context.Context, payload []byte, topK int) (*Result, error) {
	idx := service.index.Load()
	if idx == nil || len(idx.references) == 0 {
		return &Result{
			Status:     StatusNotConfigured,
			Candidates: []Candidate{},
			Message:    "No indexed reference images available",
		}, nil
	}

	descriptor, err := DescriptorFromBytes(payload)
	if err != nil {
		return nil, apperr.ValidationError("Image could not be processed")
	}

	if topK < 1 {
		topK = 1
	} else if topK > 5 {
		topK = 5
	}

	byEntity := make(map[string]Candidate)
	for i := range idx.references {
		ref := &idx.references[i]

		hashDistance := hammingDistanceHex(descriptor.DHashHex, ref.dhash)
		hashSimilarity := 1.0 - float64(hashDistance)/64.0
		if hashSimilarity < 0 {
			hashSimilarity = 0
		}

		combined := round4(hashSimilarity*hashWeight + colorSimilarity(descriptor.MeanRGB, ref.meanRGB)*colorWeight)
		if combined < referenceScoreFloor {
			continue
		}

		previous, exists := byEntity[ref.catalogID]
		if !exists || combined > previous.Score {
			byEntity[ref.catalogID] = Candidate{
				CatalogID: ref.catalogID,
				Title:     ref.title,
				Score:     combined,
			}
		}
	}

	candidates := make([]Candidate, 0, len(byEntity))
	for _, candidate := range byEntity {
		candidates = append(candidates, candidate)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CatalogID < candidates[j].CatalogID
	})

	if len(candidates) == 0 {
		return &Result{
			Status:     StatusNotFound,
			Candidates: []Candidate{},
			Message:    "No matching figure found",
		}, nil
	}

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	top := candidates[0].Score
	second := 0.0
	if len(candidates) > 1 {
		second = candidates[1].Score
	}

	if top < service.thresholds.MinScore {
		return &Result{
			Status:     StatusNotFound,
			Candidates: []Candidate{},
			Message:    "Recognition confidence too low",
		}, nil
	}

	if top >= service.thresholds.ResolvedScore && (top-second) >= service.thresholds.ResolvedGap {
		return &Result{Status: StatusResolved, Candidates: candidates[:1]}, nil
	}

	return &Result{Status: StatusNeedsConfirmation, Candidates: candidates}, nil
}

func round4(f float64) float64 {
	return float64(int(f*10000+0.5)) / 10000
}
