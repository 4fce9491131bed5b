package meterdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

var ErrNoRuns = errors.New("no load runs recorded")

// ReplaceMerged swaps the stored table for table in one transaction.
func (s *Store) ReplaceMerged(ctx context.Context, table types.MergedTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM merged_readings"); err != nil {
		return fmt.Errorf("failed to clear merged readings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO merged_readings (timestamp, consumption_w, production_w, total_w) "+
			"VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range table {
		if _, err := stmt.ExecContext(ctx, r.Timestamp.Unix(), r.Consumption, r.Production, r.Total); err != nil {
			return fmt.Errorf("failed to insert merged reading: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merged readings: %w", err)
	}
	return nil
}

// ReadMerged returns the stored records with from <= timestamp <= to, ascending.
func (s *Store) ReadMerged(ctx context.Context, from, to time.Time) (types.MergedTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, consumption_w, production_w, total_w
		FROM merged_readings
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp`,
		from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query merged readings: %w", err)
	}
	defer rows.Close()

	out := make(types.MergedTable, 0)
	for rows.Next() {
		var r MeterDbMergedReading
		if err := rows.Scan(&r.Timestamp, &r.ConsumptionW, &r.ProductionW, &r.TotalW); err != nil {
			return nil, err
		}
		out = append(out, types.MergedRecord{
			Timestamp:   time.Unix(r.Timestamp, 0).UTC(),
			Consumption: r.ConsumptionW,
			Production:  r.ProductionW,
			Total:       r.TotalW,
		})
	}
	return out, rows.Err()
}

func (s *Store) RecordRun(ctx context.Context, run *MeterDbLoadRun) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO load_runs "+
			"(run_id, started_at, finished_at, status, row_count, message, fingerprint) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.RunID,
		run.StartedAt,
		run.FinishedAt,
		run.Status,
		run.Rows,
		run.Message,
		run.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to record load run: %w", err)
	}
	return nil
}

func (s *Store) LatestRun(ctx context.Context) (*MeterDbLoadRun, error) {
	var run MeterDbLoadRun
	var message, fingerprint sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, status, row_count, message, fingerprint
		FROM load_runs
		ORDER BY finished_at DESC
		LIMIT 1`,
	).Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Rows, &message, &fingerprint)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoRuns
		}
		return nil, err
	}
	run.Message = message.String
	run.Fingerprint = fingerprint.String
	return &run, nil
}
