package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives batch results in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the results database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS runs (
		batch_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		combination TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		days REAL NOT NULL,
		ticks INTEGER NOT NULL,
		total_infected INTEGER NOT NULL,
		initial_infected INTEGER NOT NULL,
		population INTEGER NOT NULL,
		percent_infected REAL NOT NULL,
		peak_infected INTEGER NOT NULL,
		peak_day REAL NOT NULL,
		average_contact REAL NOT NULL,
		resolved INTEGER NOT NULL,
		PRIMARY KEY (batch_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_combination ON runs(batch_id, combination);
	`)
	return err
}

// SaveResults stores results under batchID in one transaction.
// Saving the same batch again replaces its rows.
func (s *SQLiteStore) SaveResults(ctx context.Context, batchID string, results []Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO runs (
			batch_id, idx, combination, iteration, seed, days, ticks, total_infected,
			initial_infected, population, percent_infected, peak_infected, peak_day,
			average_contact, resolved
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(batch_id, idx) DO UPDATE SET
			combination = excluded.combination,
			iteration = excluded.iteration,
			seed = excluded.seed,
			days = excluded.days,
			ticks = excluded.ticks,
			total_infected = excluded.total_infected,
			initial_infected = excluded.initial_infected,
			population = excluded.population,
			percent_infected = excluded.percent_infected,
			peak_infected = excluded.peak_infected,
			peak_day = excluded.peak_day,
			average_contact = excluded.average_contact,
			resolved = excluded.resolved
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			batchID, r.Index, r.Combination, r.Iteration, r.Seed, r.Days, r.Ticks, r.TotalInfected,
			r.InitialInfected, r.Population, r.PercentInfected, r.PeakInfected, r.PeakDay,
			r.AverageContact, r.Resolved,
		); err != nil {
			return fmt.Errorf("insert run %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadResults returns the results stored under batchID ordered by run index.
func (s *SQLiteStore) LoadResults(ctx context.Context, batchID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, combination, iteration, seed, days, ticks, total_infected,
			initial_infected, population, percent_infected, peak_infected, peak_day,
			average_contact, resolved
		FROM runs WHERE batch_id = ? ORDER BY idx
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.Index, &r.Combination, &r.Iteration, &r.Seed, &r.Days, &r.Ticks, &r.TotalInfected,
			&r.InitialInfected, &r.Population, &r.PercentInfected, &r.PeakInfected, &r.PeakDay,
			&r.AverageContact, &r.Resolved,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Batches returns the stored batch IDs in ascending order.
func (s *SQLiteStore) Batches(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT batch_id FROM runs ORDER BY batch_id`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
