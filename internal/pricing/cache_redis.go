// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toniewert/toniewert/internal/platform/constants"
)

// SnapshotCache is the Redis hot path in front of the snapshot table.
// Cache failures are logged and absorbed: Redis being down degrades to
// Postgres reads, never to request failures.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache builds the cache with the given entry lifetime.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

func snapshotKey(catalogID string, condition Condition) string {
	return constants.RedisPrefixPriceSnapshot + catalogID + ":" + string(condition)
}

// Get returns the cached snapshot, or nil on miss or cache failure.
func (cache *SnapshotCache) Get(ctx context.Context, catalogID string, condition Condition) *Snapshot {
	raw, err := cache.client.Get(ctx, snapshotKey(catalogID, condition)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.Warn("price_cache_read_failed", slog.String("error", err.Error()))
		}
		return nil
	}

	snapshot := &Snapshot{}
	if err := json.Unmarshal(raw, snapshot); err != nil {
		cache.logger.Warn("price_cache_decode_failed", slog.String("error", err.Error()))
		return nil
	}
	return snapshot
}

// Set stores the snapshot with the configured TTL.
func (cache *SnapshotCache) Set(ctx context.Context, snapshot *Snapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		cache.logger.Warn("price_cache_encode_failed", slog.String("error", err.Error()))
		return
	}

	key := snapshotKey(snapshot.CatalogID, Condition(snapshot.Condition))
	if err := cache.client.Set(ctx, key, raw, cache.ttl).Err(); err != nil {
		cache.logger.Warn("price_cache_write_failed", slog.String("error", err.Error()))
	}
}

// Invalidate drops the cached snapshots for one entity across all
// conditions.
func (cache *SnapshotCache) Invalidate(ctx context.Context, catalogID string) {
	keys := make([]string, 0, len(conditionFactors))
	for condition := range conditionFactors {
		keys = append(keys, snapshotKey(catalogID, condition))
	}
	if err := cache.client.Del(ctx, keys...).Err(); err != nil {
		cache.logger.Warn("price_cache_invalidate_failed", slog.String("error", err.Error()))
	}
}
