// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/market"
	"github.com/toniewert/toniewert/internal/platform/dberr"
	"github.com/toniewert/toniewert/internal/platform/validate"
)

// Refresher triggers a synchronous market refresh for one entity.
// Implemented by the refresh coordinator; single-flight semantics and
// conflict handling live there.
type Refresher interface {
	RefreshEntity(ctx context.Context, catalogID string) error
}

// ServiceOptions carry the cache and evidence tunables.
type ServiceOptions struct {
	CacheTTL     time.Duration
	WindowDays   int
	ListingLimit int
}

// Service implements the staleness-aware pricing waterfall over the
// snapshot cache, stored listings, and live refresh.
type Service struct {
	catalog   *catalog.Service
	listings  *market.Service
	repo      Repository
	cache     *SnapshotCache
	engine    *Engine
	refresher Refresher
	opts      ServiceOptions
	logger    *slog.Logger
}

// NewService wires the pricing service. refresher may be nil; the live
// refresh step is then skipped (used by the offline index builder).
func NewService(
	catalogService *catalog.Service,
	listings *market.Service,
	repo Repository,
	cache *SnapshotCache,
	engine *Engine,
	refresher Refresher,
	opts ServiceOptions,
	logger *slog.Logger,
) *Service {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 90
	}
	if opts.ListingLimit <= 0 {
		opts.ListingLimit = 400
	}
	return &Service{
		catalog:   catalogService,
		listings:  listings,
		repo:      repo,
		cache:     cache,
		engine:    engine,
		refresher: refresher,
		opts:      opts,
		logger:    logger,
	}
}

// PriceResult is the API-facing pricing outcome: the snapshot plus
// entity metadata, trend and quality band.
type PriceResult struct {
	Snapshot
	Title       string `json:"title"`
	Series      string `json:"series"`
	Rarity      string `json:"rarity"`
	QualityBand string `json:"quality_band"`
	Trend       Trend  `json:"trend"`
}

/*
GetPrice resolves a price estimate for one entity and condition.

Waterfall, most trusted first:
 1. Redis snapshot (skipped when the caller forces a refresh),
 2. fresh Postgres snapshot passing the evidence gate,
 3. recomputation from stored listings inside the freshness window,
 4. live single-flight refresh, then recomputation,
 5. offer-based estimator on whatever offers exist,
 6. stale Postgres snapshot, served marked stale,
 7. the named no-data fallback with no numeric price.

Every served result writes a pricing event with its latency.
*/
func (service *Service) GetPrice(ctx context.Context, catalogID string, condition Condition, forceRefresh bool) (*PriceResult, error) {
	started := time.Now()

	v := &validate.Validator{}
	if err := v.CatalogID("catalog_id", catalogID).Err(); err != nil {
		return nil, err
	}

	entity, err := service.catalog.GetEntity(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	snapshot, trend := service.resolveSnapshot(ctx, catalogID, condition, forceRefresh)
	service.recordEvent(ctx, snapshot, started)

	return &PriceResult{
		Snapshot:    *snapshot,
		Title:       entity.Title,
		Series:      entity.Series,
		Rarity:      entity.Rarity(),
		QualityBand: QualityBand(snapshot.QualityTier),
		Trend:       trend,
	}, nil
}

func (service *Service) resolveSnapshot(ctx context.Context, catalogID string, condition Condition, forceRefresh bool) (*Snapshot, Trend) {
	window := time.Duration(service.opts.WindowDays) * 24 * time.Hour

	listings, err := service.listings.ListForEntity(ctx, catalogID, window, service.opts.ListingLimit)
	if err != nil {
		service.logger.Warn("pricing_listing_read_failed",
			slog.String("catalog_id", catalogID), slog.String("error", err.Error()))
		listings = nil
	}
	trend := trendFromListings(listings)

	if !forceRefresh {
		if cached := service.cache.Get(ctx, catalogID, condition); cached != nil && cached.HasPrice() {
			served := *cached
			served.Source = CachedSourceLabel(cached.Source, false)
			return &served, trend
		}

		if stored := service.freshStoredSnapshot(ctx, catalogID, condition); stored != nil {
			service.cache.Set(ctx, stored)
			served := *stored
			served.Source = CachedSourceLabel(stored.Source, false)
			return &served, trend
		}
	}

	// Recompute from stored listings before going to the network.
	if !forceRefresh {
		if estimate, ok := service.engine.Aggregate(listings, condition); ok {
			return service.persist(ctx, catalogID, condition, estimate), trend
		}
	}

	// Live refresh through the single-flight coordinator, then retry
	// the aggregation on the refreshed sample.
	if service.refresher != nil {
		if err := service.refresher.RefreshEntity(ctx, catalogID); err != nil {
			service.logger.Warn("pricing_live_refresh_failed",
				slog.String("catalog_id", catalogID), slog.String("error", err.Error()))
		} else {
			// Fresh listings supersede every cached condition variant.
			service.cache.Invalidate(ctx, catalogID)
			refreshed, err := service.listings.ListForEntity(ctx, catalogID, window, service.opts.ListingLimit)
			if err == nil {
				listings = refreshed
				trend = trendFromListings(listings)
			}
		}
	}

	if estimate, ok := service.engine.Aggregate(listings, condition); ok {
		return service.persist(ctx, catalogID, condition, estimate), trend
	}
	if estimate, ok := service.engine.OfferEstimate(listings, condition); ok {
		return service.persist(ctx, catalogID, condition, estimate), trend
	}

	// Serve stale evidence over no evidence.
	if stale := service.staleStoredSnapshot(ctx, catalogID, condition); stale != nil {
		served := *stale
		served.Source = CachedSourceLabel(stale.Source, true)
		served.QualityTier, served.ConfidenceScore = DeriveQuality(served.Source, served.EffectiveSampleSize, served.SampleSize)
		return &served, trend
	}

	fallback := &Snapshot{
		CatalogID:  catalogID,
		Condition:  string(condition),
		Source:     SourceFallbackNoData,
		ComputedAt: time.Now().UTC(),
	}
	fallback.QualityTier, fallback.ConfidenceScore = DeriveQuality(SourceFallbackNoData, 0, 0)
	return fallback, trend
}

// freshStoredSnapshot returns the stored snapshot when it is inside the
// cache TTL and still passes the evidence gate.
func (service *Service) freshStoredSnapshot(ctx context.Context, catalogID string, condition Condition) *Snapshot {
	stored, err := service.repo.GetSnapshot(ctx, catalogID, condition)
	if err != nil {
		if !errors.Is(err, dberr.ErrNotFound) {
			service.logger.Warn("pricing_snapshot_read_failed",
				slog.String("catalog_id", catalogID), slog.String("error", err.Error()))
		}
		return nil
	}

	if !stored.HasPrice() {
		return nil
	}
	if time.Since(stored.ComputedAt) > service.opts.CacheTTL {
		return nil
	}
	if !service.meetsEvidenceGate(stored) {
		return nil
	}
	return stored
}

func (service *Service) staleStoredSnapshot(ctx context.Context, catalogID string, condition Condition) *Snapshot {
	stored, err := service.repo.GetSnapshot(ctx, catalogID, condition)
	if err != nil || !stored.HasPrice() {
		return nil
	}
	return stored
}

// meetsEvidenceGate rechecks the minimum-sample invariant on a stored
// snapshot so a historically thin snapshot cannot be served as fresh.
func (service *Service) meetsEvidenceGate(snapshot *Snapshot) bool {
	minEffective := service.engine.opts.MinEffectiveSamples
	if snapshot.Source == SourceOfferOnlyLive || snapshot.Source == SourceOfferEstimate {
		if relaxed := 0.45 * minEffective; relaxed > 1.5 {
			minEffective = relaxed
		} else {
			minEffective = 1.5
		}
	}
	return snapshot.SampleSize >= service.engine.opts.MinSamples &&
		snapshot.EffectiveSampleSize >= minEffective
}

func (service *Service) persist(ctx context.Context, catalogID string, condition Condition, estimate *Estimate) *Snapshot {
	tier, confidence := DeriveQuality(estimate.Source, estimate.EffectiveSampleSize, estimate.SampleSize)

	snapshot := &Snapshot{
		CatalogID:           catalogID,
		Condition:           string(condition),
		Q25:                 &estimate.Q25,
		Q50:                 &estimate.Q50,
		Q75:                 &estimate.Q75,
		SampleSize:          estimate.SampleSize,
		EffectiveSampleSize: estimate.EffectiveSampleSize,
		Source:              estimate.Source,
		QualityTier:         tier,
		ConfidenceScore:     confidence,
		ComputedAt:          time.Now().UTC(),
	}

	if err := service.repo.UpsertSnapshot(ctx, snapshot); err != nil {
		service.logger.Warn("pricing_snapshot_write_failed",
			slog.String("catalog_id", catalogID), slog.String("error", err.Error()))
	}
	service.cache.Set(ctx, snapshot)
	return snapshot
}

func (service *Service) recordEvent(ctx context.Context, snapshot *Snapshot, started time.Time) {
	event := &Event{
		CatalogID:  snapshot.CatalogID,
		Condition:  snapshot.Condition,
		Source:     snapshot.Source,
		SampleSize: snapshot.SampleSize,
		LatencyMS:  time.Since(started).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := service.repo.InsertEvent(ctx, event); err != nil {
		service.logger.Warn("pricing_event_write_failed", slog.String("error", err.Error()))
	}
}

// Report aggregates recent pricing events for operators.
func (service *Service) Report(ctx context.Context, window int) (*QualityReport, error) {
	if window <= 0 {
		window = 500
	}
	return service.repo.QualityReport(ctx, window)
}

func trendFromListings(listings []market.Listing) Trend {
	points := make([]TrendPoint, 0, len(listings))
	for _, listing := range listings {
		points = append(points, TrendPoint{PriceEUR: listing.PriceEUR, FetchedAt: listing.FetchedAt})
	}
	return DeriveTrend(points)
}
