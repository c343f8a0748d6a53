package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"blackout-stats/models"
	"blackout-stats/sheets"
	"blackout-stats/utils"
)

// WeekBlock describes where each field sits inside the fixed-width block of
// columns a week occupies in the wide sheet. Offsets are relative to the
// start of the block; the first column of a block is unused.
type WeekBlock struct {
	Width       int
	Count       int
	ReportedPct int
	Score       int
	Name        int
	Position    int
	Team        int
}

// DefaultWeekBlock is the layout of the blackout selections sheet.
var DefaultWeekBlock = WeekBlock{
	Width:       7,
	Count:       1,
	ReportedPct: 2,
	Score:       3,
	Name:        4,
	Position:    5,
	Team:        6,
}

// Reshaper turns the wide, week-blocked sheet into one record per selection.
type Reshaper struct {
	block  WeekBlock
	logger *utils.Logger
}

// NewReshaper creates a Reshaper for the default sheet layout.
func NewReshaper(logger *utils.Logger) *Reshaper {
	return &Reshaper{block: DefaultWeekBlock, logger: logger}
}

// WithBlock overrides the week block layout.
func (r *Reshaper) WithBlock(b WeekBlock) *Reshaper {
	r.block = b
	return r
}

// Weeks is the number of complete week blocks in a table of the given width.
// Trailing columns that do not fill a whole block are ignored.
func (r *Reshaper) Weeks(width int) int {
	if r.block.Width <= 0 {
		return 0
	}
	return width / r.block.Width
}

// Reshape emits a record for every (row, week) pair that has both a name and
// a count. Blank pairs are the normal sparse case and are skipped silently.
func (r *Reshaper) Reshape(t *sheets.Table) ([]*models.SelectionRecord, error) {
	weeks := r.Weeks(t.Width())
	result := make([]*models.SelectionRecord, 0, len(t.Rows))
	malformed := 0

	for rowIdx, row := range t.Rows {
		for week := 1; week <= weeks; week++ {
			rec, ok, err := r.slice(row, rowIdx, week)
			if err != nil {
				malformed++
				r.logger.Debug("[reshaper] Row %d week %d skipped: %v", rowIdx, week, err)
				continue
			}
			if ok {
				result = append(result, rec)
			}
		}
	}

	r.logger.Info("[reshaper] %d rows x %d weeks -> %d selections (%d malformed)",
		len(t.Rows), weeks, len(result), malformed)

	if len(result) == 0 {
		return nil, ErrDataFormat
	}
	return result, nil
}

// slice reads one week block of one row. ok is false for blank pairs.
func (r *Reshaper) slice(row []string, rowIdx, week int) (rec *models.SelectionRecord, ok bool, err error) {
	start := (week - 1) * r.block.Width
	if start >= len(row) {
		return nil, false, nil
	}

	name := normaliseText(cellAt(row, start+r.block.Name))
	count := strings.TrimSpace(cellAt(row, start+r.block.Count))
	if name == "" || count == "" {
		return nil, false, nil
	}

	if strings.ContainsFunc(name, unicode.IsControl) {
		return nil, false, fmt.Errorf("control characters in name %q", name)
	}

	return &models.SelectionRecord{
		Week:        week,
		Name:        name,
		Position:    strings.ToUpper(normaliseText(cellAt(row, start+r.block.Position))),
		Team:        normaliseText(cellAt(row, start+r.block.Team)),
		Score:       parseNumber(cellAt(row, start+r.block.Score)),
		Count:       countValue(count),
		ReportedPct: parsePct(cellAt(row, start+r.block.ReportedPct)),
		Row:         rowIdx,
	}, true, nil
}

// cellAt treats cells past the end of a ragged row as blank.
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseNumber coerces a cell to a float, returning NaN for blank or invalid cells.
func parseNumber(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// countValue coerces a count cell, defaulting invalid values to 0 so the
// record is dropped by the filter instead of failing the load.
func countValue(raw string) int {
	f := parseNumber(raw)
	if math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// parsePct reads "12.5%" or "12.5"; anything else is 0.
func parsePct(raw string) float64 {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	f := parseNumber(s)
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace, so a doubled space in one week's cell does not split a player's
// "All" row in two.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
