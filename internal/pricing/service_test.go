// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/market"
	"github.com/toniewert/toniewert/internal/platform/apperr"
	"github.com/toniewert/toniewert/internal/platform/dberr"
	"github.com/toniewert/toniewert/internal/pricing"
)

// # Test Fixtures

func serviceTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeCatalogRepository struct {
	entities []*catalog.Entity
}

func (repo *fakeCatalogRepository) ListAll(_ context.Context) ([]*catalog.Entity, error) {
	return repo.entities, nil
}

func (repo *fakeCatalogRepository) GetByID(_ context.Context, id string) (*catalog.Entity, error) {
	for _, entity := range repo.entities {
		if entity.ID == id {
			return entity, nil
		}
	}
	return nil, apperr.NotFound("Catalog entity")
}

func (repo *fakeCatalogRepository) Search(_ context.Context, _ string, _ int) ([]*catalog.Entity, error) {
	return repo.entities, nil
}

func (repo *fakeCatalogRepository) AddAlias(_ context.Context, _, _ string) error { return nil }

type fakeListingRepository struct {
	listings []market.Listing
}

func (repo *fakeListingRepository) Upsert(_ context.Context, listings []market.Listing) (int, error) {
	return len(listings), nil
}

func (repo *fakeListingRepository) ListForEntity(_ context.Context, catalogID string, _ time.Duration, _ int) ([]market.Listing, error) {
	matched := make([]market.Listing, 0, len(repo.listings))
	for _, listing := range repo.listings {
		if listing.CatalogID == catalogID {
			matched = append(matched, listing)
		}
	}
	return matched, nil
}

func (repo *fakeListingRepository) Prune(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (repo *fakeListingRepository) CoverageForEntity(_ context.Context, _ string, _ time.Duration) ([]market.SourceCoverage, error) {
	return nil, nil
}

func (repo *fakeListingRepository) EntityIDsWithListings(_ context.Context, _ time.Duration) ([]string, error) {
	return nil, nil
}

type fakeSnapshotRepository struct {
	mu        sync.Mutex
	snapshots map[string]*pricing.Snapshot
	events    []*pricing.Event
}

func snapshotMapKey(catalogID, condition string) string {
	return catalogID + ":" + condition
}

func (repo *fakeSnapshotRepository) UpsertSnapshot(_ context.Context, snapshot *pricing.Snapshot) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.snapshots == nil {
		repo.snapshots = map[string]*pricing.Snapshot{}
	}
	stored := *snapshot
	repo.snapshots[snapshotMapKey(snapshot.CatalogID, snapshot.Condition)] = &stored
	return nil
}

func (repo *fakeSnapshotRepository) GetSnapshot(_ context.Context, catalogID string, condition pricing.Condition) (*pricing.Snapshot, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	stored, ok := repo.snapshots[snapshotMapKey(catalogID, string(condition))]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	snapshot := *stored
	return &snapshot, nil
}

func (repo *fakeSnapshotRepository) InsertEvent(_ context.Context, event *pricing.Event) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.events = append(repo.events, event)
	return nil
}

func (repo *fakeSnapshotRepository) QualityReport(_ context.Context, window int) (*pricing.QualityReport, error) {
	return &pricing.QualityReport{Window: window}, nil
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (refresher *fakeRefresher) RefreshEntity(_ context.Context, _ string) error {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	refresher.calls++
	return refresher.err
}

func (refresher *fakeRefresher) callCount() int {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	return refresher.calls
}

// unreachableCache points at a closed port: every read is a miss and
// every write fails, which the cache must absorb silently.
func unreachableCache() *pricing.SnapshotCache {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	return pricing.NewSnapshotCache(client, time.Hour, serviceTestLogger())
}

func testPricingService(snapshots *fakeSnapshotRepository, listings *fakeListingRepository, refresher pricing.Refresher) *pricing.Service {
	logger := serviceTestLogger()

	catalogService := catalog.NewService(&fakeCatalogRepository{entities: []*catalog.Entity{
		{ID: "tn_001", Title: "Der Grüffelo", AvailabilityState: "active"},
	}}, logger)
	marketService := market.NewService(listings, nil, market.ServiceOptions{}, logger)

	return pricing.NewService(
		catalogService,
		marketService,
		snapshots,
		unreachableCache(),
		testEngine(),
		refresher,
		pricing.ServiceOptions{CacheTTL: time.Hour},
		logger,
	)
}

func storedSold(catalogID string, prices ...float64) []market.Listing {
	now := time.Now().UTC()
	listings := soldListings(prices...)
	for i := range listings {
		listings[i].CatalogID = catalogID
		listings[i].FetchedAt = now
	}
	return listings
}

// # Tests

/*
TestService_GetPrice_NoMarketData walks the waterfall to its terminal
state: no cache, no snapshot, no listings, and a live refresh that
returns nothing. The response names the no-data state, carries no
numeric price, and nothing is persisted besides the pricing event.
*/
func TestService_GetPrice_NoMarketData(t *testing.T) {
	snapshots := &fakeSnapshotRepository{}
	refresher := &fakeRefresher{}
	service := testPricingService(snapshots, &fakeListingRepository{}, refresher)

	result, err := service.GetPrice(context.Background(), "tn_001", pricing.DefaultCondition, false)
	require.NoError(t, err)

	// 1. Named terminal state, no fabricated price.
	assert.Equal(t, pricing.SourceFallbackNoData, result.Source)
	assert.Nil(t, result.Q25)
	assert.Nil(t, result.Q50)
	assert.Nil(t, result.Q75)
	assert.Equal(t, 0, result.SampleSize)

	// 2. Quality reflects the absence of evidence.
	assert.Equal(t, pricing.TierLow, result.QualityTier)
	assert.InDelta(t, 0.15, result.ConfidenceScore, 0.0001)
	assert.Equal(t, "C", result.QualityBand)
	assert.Equal(t, "right", result.Trend.Direction)

	// 3. The live refresh was attempted exactly once before giving up.
	assert.Equal(t, 1, refresher.callCount())

	// 4. No snapshot row is written for the fallback; only the event.
	assert.Empty(t, snapshots.snapshots)
	require.Len(t, snapshots.events, 1)
	assert.Equal(t, pricing.SourceFallbackNoData, snapshots.events[0].Source)
}

/*
TestService_GetPrice_ComputesFromStoredListings aggregates stored sold
listings without touching the network, persists the snapshot, and
records the event.
*/
func TestService_GetPrice_ComputesFromStoredListings(t *testing.T) {
	snapshots := &fakeSnapshotRepository{}
	refresher := &fakeRefresher{}
	listings := &fakeListingRepository{listings: storedSold("tn_001", 10, 12, 12, 14, 16)}
	service := testPricingService(snapshots, listings, refresher)

	result, err := service.GetPrice(context.Background(), "tn_001", pricing.DefaultCondition, false)
	require.NoError(t, err)

	// 1. Sold-live aggregation over the stored sample.
	assert.Equal(t, pricing.SourceSoldLive, result.Source)
	require.NotNil(t, result.Q50)
	assert.InDelta(t, 12.0, *result.Q50, 0.001)
	assert.Equal(t, 5, result.SampleSize)
	assert.InDelta(t, 5.0, result.EffectiveSampleSize, 0.001)
	assert.Equal(t, "Der Grüffelo", result.Title)

	// 2. Stored evidence was enough: no live refresh.
	assert.Equal(t, 0, refresher.callCount())

	// 3. Snapshot persisted and event recorded.
	require.Len(t, snapshots.snapshots, 1)
	require.Len(t, snapshots.events, 1)
	assert.Equal(t, pricing.SourceSoldLive, snapshots.events[0].Source)
}

/*
TestService_GetPrice_ServesStaleWhenRefreshFails falls back to the
stored snapshot past its TTL when no listings survive and the live
refresh errors, relabelling it as stale.
*/
func TestService_GetPrice_ServesStaleWhenRefreshFails(t *testing.T) {
	q25, q50, q75 := 18.0, 22.0, 27.0
	snapshots := &fakeSnapshotRepository{}
	require.NoError(t, snapshots.UpsertSnapshot(context.Background(), &pricing.Snapshot{
		CatalogID:           "tn_001",
		Condition:           string(pricing.DefaultCondition),
		Q25:                 &q25,
		Q50:                 &q50,
		Q75:                 &q75,
		SampleSize:          9,
		EffectiveSampleSize: 9.0,
		Source:              pricing.SourceSoldLive,
		ComputedAt:          time.Now().UTC().Add(-48 * time.Hour),
	}))
	refresher := &fakeRefresher{err: assert.AnError}
	service := testPricingService(snapshots, &fakeListingRepository{}, refresher)

	result, err := service.GetPrice(context.Background(), "tn_001", pricing.DefaultCondition, false)
	require.NoError(t, err)

	// 1. The stale snapshot is served under its stale label.
	assert.Equal(t, pricing.CachedSourceLabel(pricing.SourceSoldLive, true), result.Source)
	require.NotNil(t, result.Q50)
	assert.InDelta(t, 22.0, *result.Q50, 0.001)

	// 2. Quality is rederived for the stale serving.
	assert.Equal(t, pricing.TierMedium, result.QualityTier)
	assert.InDelta(t, 0.55, result.ConfidenceScore, 0.0001)
}

/*
TestService_GetPrice_RejectsMalformedID refuses non-canonical catalog
identifiers before any lookup happens.
*/
func TestService_GetPrice_RejectsMalformedID(t *testing.T) {
	snapshots := &fakeSnapshotRepository{}
	service := testPricingService(snapshots, &fakeListingRepository{}, nil)

	_, err := service.GetPrice(context.Background(), "hexe lilli", pricing.DefaultCondition, false)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Empty(t, snapshots.events)
}
