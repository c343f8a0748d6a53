package services

import (
	"blackout-stats/models"
	"blackout-stats/sheets"
)

// block builds one seven-column week block: unused, count, pct, score, name, position, team.
func block(count, pct, score, name, pos, team string) []string {
	return []string{"", count, pct, score, name, pos, team}
}

func blank() []string { return make([]string, 7) }

func row(blocks ...[]string) []string {
	var r []string
	for _, b := range blocks {
		r = append(r, b...)
	}
	return r
}

// twoWeekSheet is a three-row, two-week sheet with the sparse layout of the real export.
func twoWeekSheet() *sheets.Table {
	return &sheets.Table{
		Header: make([]string, 14),
		Rows: [][]string{
			row(block("10", "5%", "12.5", " Josh  Allen ", "QB", "BUF"), block("4", "2%", "20", "Josh Allen", "QB", "BUF")),
			row(blank(), block("30", "15%", "8", "Derrick Henry", "rb", "BAL")),
			row(block("6", "3%", "abc", "Justin Tucker", "PK", "BAL"), blank()),
		},
	}
}

func rec(week int, name, pos string, count, entries int, pct float64) *models.SelectionRecord {
	return &models.SelectionRecord{
		Week:          week,
		Name:          name,
		Position:      pos,
		Count:         count,
		Entries:       entries,
		EntriesSource: models.EntriesKnown,
		StartPct:      pct,
	}
}
