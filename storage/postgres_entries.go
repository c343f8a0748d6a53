package storage

import (
	"database/sql"
	"fmt"

	"blackout-stats/models"
)

// PostgresEntriesStore keeps the entries log in the entry_counts table. The
// (year, week) primary key makes each week write-once.
type PostgresEntriesStore struct {
	db    *sql.DB
	runID string
}

// NewPostgresEntriesStore connects, migrates, and tags appended rows with runID.
func NewPostgresEntriesStore(dsn, runID string) (*PostgresEntriesStore, error) {
	db, err := openPostgres(dsn)
	if err != nil {
		return nil, err
	}

	s := &PostgresEntriesStore{db: db, runID: runID}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresEntriesStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entry_counts (
			year       INTEGER     NOT NULL,
			week       INTEGER     NOT NULL,
			entries    INTEGER     NOT NULL,
			run_id     TEXT        NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (year, week)
		);
	`)
	return err
}

func (s *PostgresEntriesStore) Has(year, week int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM entry_counts WHERE year = $1 AND week = $2)`,
		year, week,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: lookup week %d: %w", week, err)
	}
	return exists, nil
}

// Append inserts a row; an existing (year, week) is left untouched.
func (s *PostgresEntriesStore) Append(row models.EntriesRow) error {
	_, err := s.db.Exec(`
		INSERT INTO entry_counts (year, week, entries, run_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (year, week) DO NOTHING
	`, row.Year, row.Week, row.Entries, s.runID)
	if err != nil {
		return fmt.Errorf("postgres: append week %d: %w", row.Week, err)
	}
	return nil
}

func (s *PostgresEntriesStore) Rows() ([]models.EntriesRow, error) {
	rows, err := s.db.Query(`SELECT year, week, entries FROM entry_counts ORDER BY year, week`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch entries: %w", err)
	}
	defer rows.Close()

	var out []models.EntriesRow
	for rows.Next() {
		var r models.EntriesRow
		if err := rows.Scan(&r.Year, &r.Week, &r.Entries); err != nil {
			return nil, fmt.Errorf("postgres: scan entries row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresEntriesStore) Close() error {
	return s.db.Close()
}
