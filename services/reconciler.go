package services

import (
	"math"

	"blackout-stats/models"
	"blackout-stats/utils"
)

// EntriesTable maps a week to its authoritative entries total.
type EntriesTable map[int]int

// NewEntriesTable indexes entries rows by week. Rows tagged with a different
// year are ignored; rows without a year apply to any year. The first row for
// a week wins.
func NewEntriesTable(rows []models.EntriesRow, year int) EntriesTable {
	t := make(EntriesTable, len(rows))
	for _, r := range rows {
		if r.Year != 0 && year != 0 && r.Year != year {
			continue
		}
		if r.Week <= 0 || r.Entries <= 0 {
			continue
		}
		if _, dup := t[r.Week]; dup {
			continue
		}
		t[r.Week] = r.Entries
	}
	return t
}

// Reconciler resolves each record's weekly entries total and recomputes its
// start percentage from count and entries.
type Reconciler struct {
	logger *utils.Logger
}

// NewReconciler creates a Reconciler with the given logger.
func NewReconciler(logger *utils.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// ReconcileStats counts how each record's entries were resolved.
type ReconcileStats struct {
	Known     int
	Estimated int
	Undefined int
	Over100   int
}

// Reconcile fills Entries, EntriesSource and StartPct on every record. A nil
// or empty table means no authoritative source, so every record is estimated.
func (c *Reconciler) Reconcile(records []*models.SelectionRecord, table EntriesTable) ReconcileStats {
	var stats ReconcileStats

	for _, r := range records {
		if n, ok := table[r.Week]; ok {
			r.Entries, r.EntriesSource = n, models.EntriesKnown
		} else {
			r.Entries, r.EntriesSource = EstimateEntries(r.Count, r.ReportedPct)
		}

		switch r.EntriesSource {
		case models.EntriesKnown:
			stats.Known++
		case models.EntriesEstimated:
			stats.Estimated++
		default:
			stats.Undefined++
			r.StartPct = 0
			continue
		}

		r.StartPct = StartPct(r.Count, r.Entries)
		if r.StartPct > 100 {
			stats.Over100++
			c.logger.Warn("[reconciler] %s week %d: count %d exceeds entries %d",
				r.Name, r.Week, r.Count, r.Entries)
		}
	}

	c.logger.Info("[reconciler] entries known=%d estimated=%d undefined=%d",
		stats.Known, stats.Estimated, stats.Undefined)
	return stats
}

// EstimateEntries derives a week's entries from one record as
// round(count / (reportedPct / 100)). A zero or negative percentage, or an
// estimate below one entry, is undefined.
func EstimateEntries(count int, reportedPct float64) (int, models.EntriesSource) {
	if reportedPct <= 0 || count <= 0 {
		return 0, models.EntriesUndefined
	}
	est := math.RoundToEven(float64(count) / (reportedPct / 100))
	if est < 1 || math.IsInf(est, 0) {
		return 0, models.EntriesUndefined
	}
	return int(est), models.EntriesEstimated
}

// StartPct is 100 * count / entries rounded to one decimal.
func StartPct(count, entries int) float64 {
	if entries <= 0 {
		return 0
	}
	return round1(100 * float64(count) / float64(entries))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
