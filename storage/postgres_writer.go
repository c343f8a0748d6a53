package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"blackout-stats/models"
)

// PostgresWriter persists the reconciled table to the selections table.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := openPostgres(dsn)
	if err != nil {
		return nil, err
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS selections (
			id         SERIAL PRIMARY KEY,
			week       VARCHAR(8)   NOT NULL,
			name       TEXT         NOT NULL,
			position   VARCHAR(8)   NOT NULL,
			team       TEXT         NOT NULL DEFAULT '',
			score      NUMERIC(8,2),
			count      INTEGER      NOT NULL DEFAULT 0,
			entries    INTEGER      NOT NULL DEFAULT 0,
			start_pct  NUMERIC(6,1) NOT NULL DEFAULT 0,
			week_count INTEGER      NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_selections_week     ON selections(week);
		CREATE INDEX IF NOT EXISTS idx_selections_position ON selections(position);
	`)
	return err
}

// Clear deletes all existing selections from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM selections")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the table contents with rows, in batches.
func (pw *PostgresWriter) Write(rows []models.ViewRow) error {
	if len(rows) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const selectionColumns = 9

func (pw *PostgresWriter) insertBatch(batch []models.ViewRow) error {
	query, args := selectionsInsert(batch)
	_, err := pw.db.Exec(query, args...)
	return err
}

// selectionsInsert builds one multi-row INSERT. Every row is kept: the table
// is cleared before each export, and two players may share a name and
// position in the same week.
func selectionsInsert(batch []models.ViewRow) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*selectionColumns)

	for idx, r := range batch {
		base := idx * selectionColumns
		placeholders := make([]string, selectionColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var score sql.NullFloat64
		if !math.IsNaN(r.Score) {
			score = sql.NullFloat64{Float64: r.Score, Valid: true}
		}
		valueArgs = append(valueArgs,
			r.Week, r.Name, r.Position, r.Team, score, r.Count, r.Entries, r.StartPct, r.WeekCount)
	}

	query := fmt.Sprintf(`
		INSERT INTO selections (week, name, position, team, score, count, entries, start_pct, week_count)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored selections for the insight report.
func (pw *PostgresWriter) FetchAll() ([]models.ViewRow, error) {
	rows, err := pw.db.Query(`
		SELECT week, name, position, team, score, count, entries, start_pct, week_count
		FROM selections
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var out []models.ViewRow
	for rows.Next() {
		var (
			r     models.ViewRow
			score sql.NullFloat64
		)
		if err := rows.Scan(
			&r.Week, &r.Name, &r.Position, &r.Team, &score,
			&r.Count, &r.Entries, &r.StartPct, &r.WeekCount,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Score = math.NaN()
		if score.Valid {
			r.Score = score.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
