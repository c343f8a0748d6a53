package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"blackout-stats/models"
	"blackout-stats/sheets"
)

var entriesHeader = []string{"year", "week", "entries"}

type entriesKey struct{ year, week int }

// CSVEntriesStore is an append-only CSV log of entries totals. Existing rows
// are read once when the store is opened; every Append is flushed and synced
// to disk before it returns.
type CSVEntriesStore struct {
	path string

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   []models.EntriesRow
	seen   map[entriesKey]struct{}
}

// OpenCSVEntriesStore opens (or creates) the log at path. The header row is
// only written when the file is new or empty.
func OpenCSVEntriesStore(path string) (*CSVEntriesStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create entries dir: %w", err)
	}

	s := &CSVEntriesStore{path: path, seen: make(map[entriesKey]struct{})}
	if err := s.readExisting(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open entries log %q: %w", path, err)
	}
	s.file = f
	s.writer = csv.NewWriter(f)

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat entries log: %w", err)
	}
	switch {
	case info.Size() == 0:
		err = s.writeDurable(entriesHeader)
	case !endsWithNewline(path, info.Size()):
		// Hand-edited files often lack the final newline.
		_, err = f.WriteString("\n")
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: prepare entries log: %w", err)
	}
	return s, nil
}

func endsWithNewline(path string, size int64) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	b := make([]byte, 1)
	if _, err := f.ReadAt(b, size-1); err != nil {
		return true
	}
	return b[0] == '\n'
}

func (s *CSVEntriesStore) readExisting() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv: open entries log %q: %w", s.path, err)
	}
	defer f.Close()

	t, err := sheets.ReadCSV(f, 0)
	if err != nil {
		return err
	}
	if len(t.Header) == 0 {
		return nil
	}

	iYear, iWeek, iEntries := t.Column("year"), t.Column("week"), t.Column("entries")
	if iYear < 0 || iWeek < 0 || iEntries < 0 {
		return fmt.Errorf("csv: entries log %q has header %v, want %v", s.path, t.Header, entriesHeader)
	}
	for _, rec := range t.Rows {
		year, okY := parseInt(field(rec, iYear))
		week, okW := parseInt(field(rec, iWeek))
		if !okY || !okW {
			continue
		}
		entries, _ := parseInt(field(rec, iEntries))
		s.remember(models.EntriesRow{Year: year, Week: week, Entries: entries})
	}
	return nil
}

// remember indexes a row, keeping the first one seen for a key.
func (s *CSVEntriesStore) remember(row models.EntriesRow) bool {
	k := entriesKey{row.Year, row.Week}
	if _, dup := s.seen[k]; dup {
		return false
	}
	s.seen[k] = struct{}{}
	s.rows = append(s.rows, row)
	return true
}

// Has reports whether (year, week) is already recorded.
func (s *CSVEntriesStore) Has(year, week int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[entriesKey{year, week}]
	return ok, nil
}

// Append durably records a row. Appending an existing key is a no-op.
func (s *CSVEntriesStore) Append(row models.EntriesRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[entriesKey{row.Year, row.Week}]; dup {
		return nil
	}
	if err := s.writeDurable([]string{
		strconv.Itoa(row.Year),
		strconv.Itoa(row.Week),
		strconv.Itoa(row.Entries),
	}); err != nil {
		return fmt.Errorf("csv: append week %d: %w", row.Week, err)
	}
	s.remember(row)
	return nil
}

// Rows returns every recorded row in file order.
func (s *CSVEntriesStore) Rows() ([]models.EntriesRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EntriesRow(nil), s.rows...), nil
}

// Path is the file backing the store.
func (s *CSVEntriesStore) Path() string {
	return s.path
}

func (s *CSVEntriesStore) writeDurable(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes and closes the underlying file.
func (s *CSVEntriesStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.file.Close()
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseInt accepts "12" as well as "12.0", which spreadsheet tools tend to write back.
func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}
