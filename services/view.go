package services

import (
	"sort"
	"strconv"

	"blackout-stats/models"
)

// AllPositions selects every position.
const AllPositions = "All"

// View answers the position/week selections a dashboard offers over a Dataset.
type View struct {
	ds *Dataset
}

// NewView wraps a dataset.
func NewView(ds *Dataset) *View {
	return &View{ds: ds}
}

// Positions lists "All" followed by the positions present, in roster order.
// Positions outside the roster order follow alphabetically.
func (v *View) Positions() []string {
	present := make(map[string]struct{})
	for _, r := range v.ds.Records {
		present[r.Position] = struct{}{}
	}

	out := []string{AllPositions}
	for _, p := range models.Positions {
		if _, ok := present[p]; ok {
			out = append(out, p)
			delete(present, p)
		}
	}
	extra := make([]string, 0, len(present))
	for p := range present {
		extra = append(extra, p)
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Weeks lists "All" followed by every week present, ascending.
func (v *View) Weeks() []string {
	seen := make(map[int]struct{})
	weeks := make([]int, 0)
	for _, r := range v.ds.Records {
		if _, ok := seen[r.Week]; !ok {
			seen[r.Week] = struct{}{}
			weeks = append(weeks, r.Week)
		}
	}
	sort.Ints(weeks)

	out := make([]string, 0, len(weeks)+1)
	out = append(out, models.AllWeeks)
	for _, w := range weeks {
		out = append(out, strconv.Itoa(w))
	}
	return out
}

// DefaultWeek is the most recent week, or "All" for an empty dataset.
func (v *View) DefaultWeek() string {
	return LatestWeek(v.Rows())
}

// Select returns the rows for one position (or "All") and one week (or the
// "All" aggregate), ordered by start percentage descending.
func (v *View) Select(position, week string) []models.ViewRow {
	return SelectRows(v.Rows(), position, week)
}

// SelectRows applies the position and week selection to rows of the combined
// table, however they were obtained.
func SelectRows(rows []models.ViewRow, position, week string) []models.ViewRow {
	var out []models.ViewRow
	for _, r := range rows {
		if position != AllPositions && position != "" && r.Position != position {
			continue
		}
		if r.Week == week {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartPct > out[j].StartPct
	})
	return out
}

// LatestWeek is the highest numbered week among rows, or "All" when there is none.
func LatestWeek(rows []models.ViewRow) string {
	latest := 0
	for _, r := range rows {
		if w, err := strconv.Atoi(r.Week); err == nil && w > latest {
			latest = w
		}
	}
	if latest == 0 {
		return models.AllWeeks
	}
	return strconv.Itoa(latest)
}

// Rows returns every weekly row followed by every "All" row, the combined
// table written by exports.
func (v *View) Rows() []models.ViewRow {
	out := make([]models.ViewRow, 0, len(v.ds.Records)+len(v.ds.Aggregates))
	for _, r := range v.ds.Records {
		out = append(out, models.ViewRowFromSelection(r))
	}
	for _, a := range v.ds.Aggregates {
		out = append(out, models.ViewRowFromAggregate(a))
	}
	return out
}
