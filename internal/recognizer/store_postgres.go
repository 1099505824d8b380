// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package recognizer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
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

func (repository *PostgresRepository) ListAll(context context.Context) ([]Reference, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s ORDER BY %s ASC`,
		schema.ReferenceImage.ID, schema.ReferenceImage.CatalogID, schema.ReferenceImage.Path,
		schema.ReferenceImage.DHash, schema.ReferenceImage.MeanR, schema.ReferenceImage.MeanG,
		schema.ReferenceImage.MeanB, schema.ReferenceImage.IndexedAt,
		schema.ReferenceImage.Table, schema.ReferenceImage.ID)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_reference_images")
	}
	defer rows.Close()

	references := make([]Reference, 0)
	for rows.Next() {
		var ref Reference
		if err := rows.Scan(
			&ref.ID, &ref.CatalogID, &ref.Path,
			&ref.DHash, &ref.MeanRGB[0], &ref.MeanRGB[1], &ref.MeanRGB[2],
			&ref.IndexedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_reference_image")
		}
		references = append(references, ref)
	}

	return references, rows.Err()
}

// ReplaceAll rebuilds the index inside one transaction using COPY for the
// bulk insert. Readers either see the old index or the new one, never a mix.
func (repository *PostgresRepository) ReplaceAll(context context.Context, references []Reference) error {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_replace_reference_images")
	}
	defer func() { _ = tx.Rollback(context) }()

	if _, err := tx.Exec(context, fmt.Sprintf(`DELETE FROM %s`, schema.ReferenceImage.Table)); err != nil {
		return dberr.Wrap(err, "clear_reference_images")
	}

	_, err = tx.CopyFrom(
		context,
		pgx.Identifier{schema.ReferenceImage.Table},
		[]string{
			schema.ReferenceImage.CatalogID, schema.ReferenceImage.Path,
			schema.ReferenceImage.DHash, schema.ReferenceImage.MeanR,
			schema.ReferenceImage.MeanG, schema.ReferenceImage.MeanB,
			schema.ReferenceImage.IndexedAt,
		},
		pgx.CopyFromSlice(len(references), func(i int) ([]any, error) {
			ref := references[i]
			return []any{
				ref.CatalogID, ref.Path, ref.DHash,
				ref.MeanRGB[0], ref.MeanRGB[1], ref.MeanRGB[2],
				ref.IndexedAt,
			}, nil
		}),
	)
	if err != nil {
		return dberr.Wrap(err, "copy_reference_images")
	}

	return dberr.Wrap(tx.Commit(context), "commit_replace_reference_images")
}
