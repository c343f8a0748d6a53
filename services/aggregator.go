package services

import (
	"math"
	"sort"

	"blackout-stats/models"
)

type groupKey struct {
	name     string
	position string
}

// Aggregate collapses filtered records into one "All" row per (name, position).
// Team comes from the latest week, later source rows winning ties; score is
// the mean of the weekly scores; count and entries are summed and the start
// percentage is recomputed from the sums. Output is ordered by name, then position.
func Aggregate(records []*models.SelectionRecord) []*models.AggregatedRecord {
	type acc struct {
		agg      *models.AggregatedRecord
		weeks    map[int]struct{}
		scoreSum float64
		scored   int
		lastWeek int
		lastRow  int
	}

	groups := make(map[groupKey]*acc)
	for _, r := range records {
		k := groupKey{r.Name, r.Position}
		g, ok := groups[k]
		if !ok {
			g = &acc{
				agg:      &models.AggregatedRecord{Name: r.Name, Position: r.Position},
				weeks:    make(map[int]struct{}),
				lastWeek: -1,
				lastRow:  -1,
			}
			groups[k] = g
		}

		g.weeks[r.Week] = struct{}{}
		g.agg.Count += r.Count
		g.agg.Entries += r.Entries
		if r.HasScore() {
			g.scoreSum += r.Score
			g.scored++
		}
		if r.Week > g.lastWeek || (r.Week == g.lastWeek && r.Row >= g.lastRow) {
			g.lastWeek, g.lastRow = r.Week, r.Row
			g.agg.Team = r.Team
		}
	}

	out := make([]*models.AggregatedRecord, 0, len(groups))
	for _, g := range groups {
		g.agg.WeekCount = len(g.weeks)
		if g.scored > 0 {
			g.agg.Score = round1(g.scoreSum / float64(g.scored))
		} else {
			g.agg.Score = math.NaN()
		}
		g.agg.StartPct = StartPct(g.agg.Count, g.agg.Entries)
		out = append(out, g.agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Position < out[j].Position
	})
	return out
}
