// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"context"
	"fmt"
	"time"

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

func (repository *PostgresRepository) Upsert(context context.Context, listings []Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (%s, %s, %s, %s) DO UPDATE SET
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s`,
		schema.MarketListing.Table,
		schema.MarketListing.CatalogID, schema.MarketListing.Source,
		schema.MarketListing.Title, schema.MarketListing.PriceEUR,
		schema.MarketListing.URL, schema.MarketListing.SoldAt,
		schema.MarketListing.FetchedAt,
		schema.MarketListing.CatalogID, schema.MarketListing.Source,
		schema.MarketListing.URL, schema.MarketListing.PriceEUR,
		schema.MarketListing.Title, schema.MarketListing.Title,
		schema.MarketListing.SoldAt, schema.MarketListing.SoldAt,
		schema.MarketListing.FetchedAt, schema.MarketListing.FetchedAt)

	saved := 0
	for _, listing := range listings {
		tag, err := repository.db.Exec(context, query,
			listing.CatalogID, listing.Source, listing.Title,
			listing.PriceEUR, listing.URL, listing.SoldAt, listing.FetchedAt)
		if err != nil {
			return saved, dberr.Wrap(err, "upsert_market_listing")
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

func (repository *PostgresRepository) ListForEntity(context context.Context, catalogID string, maxAge time.Duration, limit int) ([]Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s >= $2
		ORDER BY %s DESC
		LIMIT $3`,
		schema.MarketListing.ID, schema.MarketListing.CatalogID,
		schema.MarketListing.Source, schema.MarketListing.Title,
		schema.MarketListing.PriceEUR, schema.MarketListing.URL,
		schema.MarketListing.SoldAt, schema.MarketListing.FetchedAt,
		schema.MarketListing.Table,
		schema.MarketListing.CatalogID, schema.MarketListing.FetchedAt,
		schema.MarketListing.FetchedAt)

	cutoff := time.Now().UTC().Add(-maxAge)
	rows, err := repository.db.Query(context, query, catalogID, cutoff, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_market_listings")
	}
	defer rows.Close()

	listings := make([]Listing, 0, limit)
	for rows.Next() {
		var listing Listing
		if err := rows.Scan(
			&listing.ID, &listing.CatalogID, &listing.Source,
			&listing.Title, &listing.PriceEUR, &listing.URL,
			&listing.SoldAt, &listing.FetchedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_market_listing")
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

func (repository *PostgresRepository) Prune(context context.Context, cutoff time.Time) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`,
		schema.MarketListing.Table, schema.MarketListing.FetchedAt)

	tag, err := repository.db.Exec(context, query, cutoff)
	if err != nil {
		return 0, dberr.Wrap(err, "prune_market_listings")
	}
	return int(tag.RowsAffected()), nil
}

func (repository *PostgresRepository) CoverageForEntity(context context.Context, catalogID string, maxAge time.Duration) ([]SourceCoverage, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*), MAX(%s), MIN(%s),
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %s)
		FROM %s
		WHERE %s = $1 AND %s >= $2
		GROUP BY %s
		ORDER BY %s`,
		schema.MarketListing.Source,
		schema.MarketListing.FetchedAt, schema.MarketListing.FetchedAt,
		schema.MarketListing.PriceEUR,
		schema.MarketListing.Table,
		schema.MarketListing.CatalogID, schema.MarketListing.FetchedAt,
		schema.MarketListing.Source, schema.MarketListing.Source)

	cutoff := time.Now().UTC().Add(-maxAge)
	rows, err := repository.db.Query(context, query, catalogID, cutoff)
	if err != nil {
		return nil, dberr.Wrap(err, "coverage_market_listings")
	}
	defer rows.Close()

	coverage := make([]SourceCoverage, 0, 3)
	for rows.Next() {
		var entry SourceCoverage
		if err := rows.Scan(
			&entry.Source, &entry.Listings,
			&entry.NewestAt, &entry.OldestAt, &entry.MedianEUR,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_market_coverage")
		}
		coverage = append(coverage, entry)
	}

	return coverage, rows.Err()
}

func (repository *PostgresRepository) EntityIDsWithListings(context context.Context, maxAge time.Duration) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM %s WHERE %s >= $1 ORDER BY %s`,
		schema.MarketListing.CatalogID, schema.MarketListing.Table,
		schema.MarketListing.FetchedAt, schema.MarketListing.CatalogID)

	cutoff := time.Now().UTC().Add(-maxAge)
	rows, err := repository.db.Query(context, query, cutoff)
	if err != nil {
		return nil, dberr.Wrap(err, "list_covered_entities")
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dberr.Wrap(err, "scan_covered_entity")
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
