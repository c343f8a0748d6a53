package services

import (
	"sort"
	"strings"

	"blackout-stats/models"
)

// Keep reports whether a record belongs in the cleaned dataset.
func Keep(r *models.SelectionRecord) bool {
	return r.Count > 0 &&
		r.Week > 0 &&
		strings.TrimSpace(r.Name) != "" &&
		r.EntriesSource != models.EntriesUndefined
}

// FilterSort drops records failing Keep and orders the rest by week
// ascending, then start percentage descending. Exact ties keep input order.
func FilterSort(records []*models.SelectionRecord) []*models.SelectionRecord {
	out := make([]*models.SelectionRecord, 0, len(records))
	for _, r := range records {
		if Keep(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].StartPct > out[j].StartPct
	})
	return out
}
