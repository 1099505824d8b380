// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toniewert/toniewert/internal/platform/database/schema"
	"github.com/toniewert/toniewert/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) UpsertSnapshot(context context.Context, snapshot *Snapshot) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (%s, %s) DO UPDATE SET
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s`,
		schema.PriceSnapshot.Table,
		schema.PriceSnapshot.CatalogID, schema.PriceSnapshot.Condition,
		schema.PriceSnapshot.Q25, schema.PriceSnapshot.Q50, schema.PriceSnapshot.Q75,
		schema.PriceSnapshot.SampleSize, schema.PriceSnapshot.EffectiveSampleSize,
		schema.PriceSnapshot.Source, schema.PriceSnapshot.QualityTier,
		schema.PriceSnapshot.ConfidenceScore, schema.PriceSnapshot.ComputedAt,
		schema.PriceSnapshot.CatalogID, schema.PriceSnapshot.Condition,
		schema.PriceSnapshot.Q25, schema.PriceSnapshot.Q25,
		schema.PriceSnapshot.Q50, schema.PriceSnapshot.Q50,
		schema.PriceSnapshot.Q75, schema.PriceSnapshot.Q75,
		schema.PriceSnapshot.SampleSize, schema.PriceSnapshot.SampleSize,
		schema.PriceSnapshot.EffectiveSampleSize, schema.PriceSnapshot.EffectiveSampleSize,
		schema.PriceSnapshot.Source, schema.PriceSnapshot.Source,
		schema.PriceSnapshot.QualityTier, schema.PriceSnapshot.QualityTier,
		schema.PriceSnapshot.ConfidenceScore, schema.PriceSnapshot.ConfidenceScore,
		schema.PriceSnapshot.ComputedAt, schema.PriceSnapshot.ComputedAt)

	_, err := repository.db.Exec(context, query,
		snapshot.CatalogID, snapshot.Condition,
		snapshot.Q25, snapshot.Q50, snapshot.Q75,
		snapshot.SampleSize, snapshot.EffectiveSampleSize,
		snapshot.Source, snapshot.QualityTier,
		snapshot.ConfidenceScore, snapshot.ComputedAt)
	if err != nil {
		return dberr.Wrap(err, "upsert_price_snapshot")
	}
	return nil
}

func (repository *PostgresRepository) GetSnapshot(context context.Context, catalogID string, condition Condition) (*Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1 AND %s = $2`,
		schema.PriceSnapshot.CatalogID, schema.PriceSnapshot.Condition,
		schema.PriceSnapshot.Q25, schema.PriceSnapshot.Q50, schema.PriceSnapshot.Q75,
		schema.PriceSnapshot.SampleSize, schema.PriceSnapshot.EffectiveSampleSize,
		schema.PriceSnapshot.Source, schema.PriceSnapshot.QualityTier,
		schema.PriceSnapshot.ConfidenceScore, schema.PriceSnapshot.ComputedAt,
		schema.PriceSnapshot.Table,
		schema.PriceSnapshot.CatalogID, schema.PriceSnapshot.Condition)

	snapshot := &Snapshot{}
	err := repository.db.QueryRow(context, query, catalogID, condition).Scan(
		&snapshot.CatalogID, &snapshot.Condition,
		&snapshot.Q25, &snapshot.Q50, &snapshot.Q75,
		&snapshot.SampleSize, &snapshot.EffectiveSampleSize,
		&snapshot.Source, &snapshot.QualityTier,
		&snapshot.ConfidenceScore, &snapshot.ComputedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_price_snapshot")
	}
	return snapshot, nil
}

func (repository *PostgresRepository) InsertEvent(context context.Context, event *Event) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.PricingEvent.Table,
		schema.PricingEvent.CatalogID, schema.PricingEvent.Condition,
		schema.PricingEvent.Source, schema.PricingEvent.SampleSize,
		schema.PricingEvent.LatencyMS, schema.PricingEvent.CreatedAt)

	_, err := repository.db.Exec(context, query,
		event.CatalogID, event.Condition, event.Source,
		event.SampleSize, event.LatencyMS, event.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_pricing_event")
	}
	return nil
}

func (repository *PostgresRepository) QualityReport(context context.Context, window int) (*QualityReport, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*), AVG(%s),
			COUNT(*) FILTER (WHERE %s < $2)
		FROM (
			SELECT %s, %s, %s FROM %s ORDER BY %s DESC LIMIT $1
		) recent
		GROUP BY %s`,
		schema.PricingEvent.Source, schema.PricingEvent.LatencyMS,
		schema.PricingEvent.SampleSize,
		schema.PricingEvent.Source, schema.PricingEvent.LatencyMS,
		schema.PricingEvent.SampleSize, schema.PricingEvent.Table,
		schema.PricingEvent.CreatedAt,
		schema.PricingEvent.Source)

	const lowSampleThreshold = 5
	rows, err := repository.db.Query(context, query, window, lowSampleThreshold)
	if err != nil {
		return nil, dberr.Wrap(err, "pricing_quality_report")
	}
	defer rows.Close()

	report := &QualityReport{Window: window, BySource: make(map[string]int)}
	totalLatency := 0.0
	lowSamples := 0

	for rows.Next() {
		var source string
		var count, low int
		var avgLatency float64
		if err := rows.Scan(&source, &count, &avgLatency, &low); err != nil {
			return nil, dberr.Wrap(err, "scan_pricing_quality_report")
		}

		report.BySource[source] = count
		report.Total += count
		totalLatency += avgLatency * float64(count)
		lowSamples += low
		if source == SourceFallbackNoData {
			report.FallbackCount += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "pricing_quality_report")
	}

	if report.Total > 0 {
		report.FallbackRate = round2(float64(report.FallbackCount) / float64(report.Total))
		report.LowSampleRate = round2(float64(lowSamples) / float64(report.Total))
		report.AvgLatencyMS = round2(totalLatency / float64(report.Total))
	}
	return report, nil
}
