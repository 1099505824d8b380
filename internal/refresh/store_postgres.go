// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package refresh

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

func (repository *PostgresRepository) UpsertRun(context context.Context, run *Run) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (%s) DO UPDATE SET
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = now()`,
		schema.RefreshRun.Table,
		schema.RefreshRun.RunID, schema.RefreshRun.Scope, schema.RefreshRun.Status,
		schema.RefreshRun.StartedAt, schema.RefreshRun.FinishedAt,
		schema.RefreshRun.Total, schema.RefreshRun.Processed,
		schema.RefreshRun.Successful, schema.RefreshRun.Failed,
		schema.RefreshRun.SavedRows, schema.RefreshRun.PrunedRows,
		schema.RefreshRun.Failures,
		schema.RefreshRun.RunID,
		schema.RefreshRun.Status, schema.RefreshRun.Status,
		schema.RefreshRun.FinishedAt, schema.RefreshRun.FinishedAt,
		schema.RefreshRun.Total, schema.RefreshRun.Total,
		schema.RefreshRun.Processed, schema.RefreshRun.Processed,
		schema.RefreshRun.Successful, schema.RefreshRun.Successful,
		schema.RefreshRun.Failed, schema.RefreshRun.Failed,
		schema.RefreshRun.SavedRows, schema.RefreshRun.SavedRows,
		schema.RefreshRun.PrunedRows, schema.RefreshRun.PrunedRows,
		schema.RefreshRun.Failures, schema.RefreshRun.Failures,
		schema.RefreshRun.UpdatedAt)

	_, err := repository.db.Exec(context, query,
		run.RunID, run.Scope, run.Status, run.StartedAt, run.FinishedAt,
		run.Total, run.Processed, run.Successful, run.Failed,
		run.SavedRows, run.PrunedRows, run.Failures)
	if err != nil {
		return dberr.Wrap(err, "upsert_refresh_run")
	}
	return nil
}

func (repository *PostgresRepository) ListRecent(context context.Context, limit int) ([]*Run, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s ORDER BY %s DESC LIMIT $1`,
		schema.RefreshRun.RunID, schema.RefreshRun.Scope, schema.RefreshRun.Status,
		schema.RefreshRun.StartedAt, schema.RefreshRun.FinishedAt,
		schema.RefreshRun.Total, schema.RefreshRun.Processed,
		schema.RefreshRun.Successful, schema.RefreshRun.Failed,
		schema.RefreshRun.SavedRows, schema.RefreshRun.PrunedRows,
		schema.RefreshRun.Failures,
		schema.RefreshRun.Table, schema.RefreshRun.StartedAt)

	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_refresh_runs")
	}
	defer rows.Close()

	runs := make([]*Run, 0, limit)
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.RunID, &run.Scope, &run.Status,
			&run.StartedAt, &run.FinishedAt,
			&run.Total, &run.Processed, &run.Successful, &run.Failed,
			&run.SavedRows, &run.PrunedRows, &run.Failures,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_refresh_run")
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
