// MeterDB mirrors the merged consumption/production table into SQLite and
// keeps a history of pipeline loads. The table is rebuilt in full on every
// load; only the pipeline writes to it.
package meterdb

import (
	"database/sql"
	"fmt"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pathing"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open creates the database at path if needed. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := pathing.EnsureParentDirs(path); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS merged_readings (
			timestamp      INTEGER PRIMARY KEY,
			consumption_w  REAL NOT NULL,
			production_w   REAL NOT NULL,
			total_w        REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS load_runs (
			run_id       TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			status       TEXT NOT NULL,
			row_count    INTEGER NOT NULL DEFAULT 0,
			message      TEXT,
			fingerprint  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_load_runs_finished_at ON load_runs(finished_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
