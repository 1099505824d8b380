// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/toniewert/toniewert/internal/platform/validate"
)

// # Collection Options

// ServiceOptions carry the tunables for market collection and coverage.
type ServiceOptions struct {
	HistoryDays   int
	WindowDays    int
	MaxItems      int
	SourceWeights map[string]float64
	DefaultWeight float64
	// TargetEffectiveSamples is the effective sample mass at which an
	// entity counts as fully covered.
	TargetEffectiveSamples float64
}

// Service orchestrates marketplace collection for catalog entities:
// query building, adapter fan-out, pollution filtering, deduplication
// and persistence.
type Service struct {
	repo     Repository
	adapters []Adapter
	opts     ServiceOptions
	logger   *slog.Logger
}

// NewService builds the market service over the given adapters.
func NewService(repo Repository, adapters []Adapter, opts ServiceOptions, logger *slog.Logger) *Service {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 90
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 80
	}
	if opts.TargetEffectiveSamples <= 0 {
		opts.TargetEffectiveSamples = 12
	}
	return &Service{repo: repo, adapters: adapters, opts: opts, logger: logger}
}

// # Collection

/*
CollectForEntity fetches, filters and stores fresh observations for one
catalog entity.

Sources are queried concurrently. Classifieds are capped below the sold
cap because asking prices carry less weight anyway. Listings must pass
the structural pollution gates and the entity relevance gates before
they are persisted; sold rows outside the observation window are dropped.

Returns the number of rows written.
*/
func (service *Service) CollectForEntity(ctx context.Context, target Target) (int, error) {
	queries := BuildSearchQueries(target)
	if len(queries) == 0 {
		return 0, nil
	}

	results := make([][]Listing, len(service.adapters))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, adapter := range service.adapters {
		maxItems := service.opts.MaxItems
		if adapter.Source() != SourceEbaySold && maxItems > 60 {
			maxItems = 60
		}

		group.Go(func() error {
			results[index] = FetchQueries(groupCtx, adapter, queries, maxItems, service.logger)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}

	saved := 0
	for index, adapter := range service.adapters {
		kept := service.filterForTarget(results[index], adapter.Source(), target)
		kept = ApplyTimeWindow(kept, service.opts.WindowDays, time.Now().UTC())
		if len(kept) == 0 {
			continue
		}

		rows, err := service.repo.Upsert(ctx, kept)
		if err != nil {
			return saved, err
		}
		saved += rows

		service.logger.Info("market_listings_saved",
			slog.String("catalog_id", target.CatalogID),
			slog.String("source", string(adapter.Source())),
			slog.Int("fetched", len(results[index])),
			slog.Int("saved", rows))
	}

	return saved, nil
}

// filterForTarget applies the per-source gates. Sold listings must name
// the figure context themselves; classifieds cards are structurally
// looser but must pass the stricter entity relevance check.
func (service *Service) filterForTarget(listings []Listing, source Source, target Target) []Listing {
	soldSource := source == SourceEbaySold

	kept := make([]Listing, 0, len(listings))
	for _, listing := range listings {
		if !IsValidListingTitle(listing.Title, soldSource) {
			continue
		}
		if !IsRelevantOfferTitle(listing.Title, target, !soldSource) {
			continue
		}
		listing.CatalogID = target.CatalogID
		kept = append(kept, listing)
	}
	return Dedupe(kept)
}

// Prune removes observations older than the configured history horizon.
func (service *Service) Prune(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -service.opts.HistoryDays)
	pruned, err := service.repo.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		service.logger.Info("market_listings_pruned", slog.Int("rows", pruned))
	}
	return pruned, nil
}

// ListForEntity returns stored observations for the pricing engine.
func (service *Service) ListForEntity(ctx context.Context, catalogID string, maxAge time.Duration, limit int) ([]Listing, error) {
	return service.repo.ListForEntity(ctx, catalogID, maxAge, limit)
}

// # Coverage Reporting

// CacheStatus describes stored evidence for one entity.
type CacheStatus struct {
	CatalogID        string           `json:"catalog_id"`
	Sources          []SourceCoverage `json:"sources"`
	TotalListings    int              `json:"total_listings"`
	EffectiveSamples float64          `json:"effective_samples"`
	Covered          bool             `json:"covered"`
}

// CoverageStatus summarizes evidence across the whole catalog.
type CoverageStatus struct {
	EntitiesWithListings int      `json:"entities_with_listings"`
	CatalogIDs           []string `json:"catalog_ids"`
	WindowDays           int      `json:"window_days"`
}

// CacheStatusForEntity reports per-source evidence and whether the
// weighted sample mass reaches the coverage target.
func (service *Service) CacheStatusForEntity(ctx context.Context, catalogID string) (*CacheStatus, error) {
	v := &validate.Validator{}
	if err := v.Required("catalog_id", catalogID).Err(); err != nil {
		return nil, err
	}

	maxAge := time.Duration(service.opts.WindowDays) * 24 * time.Hour
	coverage, err := service.repo.CoverageForEntity(ctx, catalogID, maxAge)
	if err != nil {
		return nil, err
	}

	status := &CacheStatus{CatalogID: catalogID, Sources: coverage}
	for _, entry := range coverage {
		status.TotalListings += entry.Listings
		status.EffectiveSamples += float64(entry.Listings) * service.sourceWeight(entry.Source)
	}
	status.Covered = status.EffectiveSamples >= service.opts.TargetEffectiveSamples
	return status, nil
}

// Coverage reports which entities currently hold any fresh evidence.
func (service *Service) Coverage(ctx context.Context) (*CoverageStatus, error) {
	maxAge := time.Duration(service.opts.WindowDays) * 24 * time.Hour
	ids, err := service.repo.EntityIDsWithListings(ctx, maxAge)
	if err != nil {
		return nil, err
	}
	return &CoverageStatus{
		EntitiesWithListings: len(ids),
		CatalogIDs:           ids,
		WindowDays:           service.opts.WindowDays,
	}, nil
}

// sourceWeight fails closed to the default weight for unknown sources.
func (service *Service) sourceWeight(source Source) float64 {
	if weight, found := service.opts.SourceWeights[string(source)]; found {
		return weight
	}
	return service.opts.DefaultWeight
}
