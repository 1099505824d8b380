// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package catalog

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

func (repository *PostgresRepository) ListAll(context context.Context) ([]*Entity, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s FROM %s ORDER BY %s ASC`,
		schema.CatalogEntity.ID, schema.CatalogEntity.Title, schema.CatalogEntity.Series,
		schema.CatalogEntity.Aliases, schema.CatalogEntity.AvailabilityState,
		schema.CatalogEntity.Deprecated, schema.CatalogEntity.CreatedAt,
		schema.CatalogEntity.Table, schema.CatalogEntity.ID)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_catalog_entities")
	}
	defer rows.Close()

	entities := make([]*Entity, 0)
	for rows.Next() {
		entity := &Entity{}
		if err := rows.Scan(
			&entity.ID, &entity.Title, &entity.Series,
			&entity.Aliases, &entity.AvailabilityState,
			&entity.Deprecated, &entity.CreatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_catalog_entity")
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

func (repository *PostgresRepository) GetByID(context context.Context, id string) (*Entity, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.CatalogEntity.ID, schema.CatalogEntity.Title, schema.CatalogEntity.Series,
		schema.CatalogEntity.Aliases, schema.CatalogEntity.AvailabilityState,
		schema.CatalogEntity.Deprecated, schema.CatalogEntity.CreatedAt,
		schema.CatalogEntity.Table, schema.CatalogEntity.ID)

	entity := &Entity{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&entity.ID, &entity.Title, &entity.Series,
		&entity.Aliases, &entity.AvailabilityState,
		&entity.Deprecated, &entity.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_catalog_entity")
	}

	return entity, nil
}

func (repository *PostgresRepository) Search(context context.Context, search string, limit int) ([]*Entity, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s ILIKE $1 OR %s ILIKE $1 OR EXISTS (
			SELECT 1 FROM unnest(%s) alias WHERE alias ILIKE $1
		)
		ORDER BY %s ASC
		LIMIT $2
	`,
		schema.CatalogEntity.ID, schema.CatalogEntity.Title, schema.CatalogEntity.Series,
		schema.CatalogEntity.Aliases, schema.CatalogEntity.AvailabilityState,
		schema.CatalogEntity.Deprecated, schema.CatalogEntity.CreatedAt,
		schema.CatalogEntity.Table,
		schema.CatalogEntity.Title, schema.CatalogEntity.Series,
		schema.CatalogEntity.Aliases,
		schema.CatalogEntity.ID)

	rows, err := repository.db.Query(context, query, "%"+search+"%", limit)
	if err != nil {
		return nil, dberr.Wrap(err, "search_catalog_entities")
	}
	defer rows.Close()

	entities := make([]*Entity, 0)
	for rows.Next() {
		entity := &Entity{}
		if err := rows.Scan(
			&entity.ID, &entity.Title, &entity.Series,
			&entity.Aliases, &entity.AvailabilityState,
			&entity.Deprecated, &entity.CreatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_catalog_entity")
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// AddAlias appends a new alias if the entity does not already carry it.
func (repository *PostgresRepository) AddAlias(context context.Context, id string, alias string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = array_append(%s, $2)
		WHERE %s = $1 AND NOT ($2 = ANY(%s))
	`,
		schema.CatalogEntity.Table,
		schema.CatalogEntity.Aliases, schema.CatalogEntity.Aliases,
		schema.CatalogEntity.ID, schema.CatalogEntity.Aliases)

	_, err := repository.db.Exec(context, query, id, alias)
	return dberr.Wrap(err, "add_catalog_alias")
}
