package sheets

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"blackout-stats/models"
)

// ParseEntries reads an entries table with at least Week and Entries columns
// (case-insensitive); a Year column is optional. Rows whose week or entries
// value is blank, non-numeric or not positive are skipped.
func ParseEntries(t *Table) ([]models.EntriesRow, error) {
	iWeek := t.Column("week")
	iEntries := t.Column("entries")
	iYear := t.Column("year")
	if iWeek < 0 || iEntries < 0 {
		return nil, fmt.Errorf("sheets: entries table needs Week and Entries columns, got %v", t.Header)
	}

	rows := make([]models.EntriesRow, 0, len(t.Rows))
	for _, rec := range t.Rows {
		week, ok := parsePositiveInt(cell(rec, iWeek))
		if !ok {
			continue
		}
		entries, ok := parsePositiveInt(cell(rec, iEntries))
		if !ok {
			continue
		}
		row := models.EntriesRow{Week: week, Entries: entries}
		if iYear >= 0 {
			row.Year, _ = parsePositiveInt(cell(rec, iYear))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parsePositiveInt accepts integral values written either as "12" or "12.0".
func parsePositiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	n := int(math.Round(f))
	if n <= 0 {
		return 0, false
	}
	return n, true
}
