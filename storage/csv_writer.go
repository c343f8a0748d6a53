package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"blackout-stats/models"
)

var datasetHeader = []string{
	"week", "name", "position", "team", "score", "count", "entries", "start_pct", "week_count",
}

// CSVWriter writes the reconciled table (weekly rows followed by "All" rows)
// to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(datasetHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends rows. Missing scores are written as empty cells.
func (c *CSVWriter) Write(rows []models.ViewRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		score := ""
		if !math.IsNaN(r.Score) {
			score = strconv.FormatFloat(r.Score, 'f', -1, 64)
		}
		row := []string{
			r.Week,
			r.Name,
			r.Position,
			r.Team,
			score,
			strconv.Itoa(r.Count),
			strconv.Itoa(r.Entries),
			strconv.FormatFloat(r.StartPct, 'f', 1, 64),
			strconv.Itoa(r.WeekCount),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
