package models

import (
	"math"
	"strconv"
)

// AllWeeks is the week label of aggregated rows. It is a selectable value of
// its own, not a union of the weekly rows.
const AllWeeks = "All"

// Positions lists the roster positions in display order.
var Positions = []string{"QB", "RB", "WR", "TE", "PK", "ST"}

// EntriesSource records how a record's weekly entries total was resolved.
type EntriesSource int

const (
	// EntriesUndefined means no authoritative total existed and the sheet's
	// percentage could not produce an estimate. Such records are excluded.
	EntriesUndefined EntriesSource = iota
	// EntriesKnown came from the authoritative entries feed or the scraper's log.
	EntriesKnown
	// EntriesEstimated was derived as round(count / (reported_pct / 100)).
	EntriesEstimated
)

func (s EntriesSource) String() string {
	switch s {
	case EntriesKnown:
		return "known"
	case EntriesEstimated:
		return "estimated"
	default:
		return "undefined"
	}
}

// SelectionRecord is one player picked in one week: the long form of a
// seven-column weekly block of the source sheet.
type SelectionRecord struct {
	Week     int
	Name     string
	Position string
	Team     string
	// Score is NaN when the sheet cell was blank or not numeric.
	Score float64
	Count int

	// ReportedPct is the sheet's own percentage. It is only used to estimate
	// Entries and never copied into StartPct.
	ReportedPct float64

	Entries       int
	EntriesSource EntriesSource
	StartPct      float64

	// Row is the source row index, used to break ties by original order.
	Row int
}

// HasScore reports whether the sheet supplied a numeric score.
func (r *SelectionRecord) HasScore() bool {
	return !math.IsNaN(r.Score)
}

// WeekLabel renders the week for display and export.
func (r *SelectionRecord) WeekLabel() string {
	return strconv.Itoa(r.Week)
}

// AggregatedRecord collapses all weeks of one (name, position) pair.
type AggregatedRecord struct {
	Name      string
	Position  string
	Team      string
	WeekCount int
	Score     float64
	Count     int
	Entries   int
	StartPct  float64
}

// WeekLabel is always AllWeeks.
func (a *AggregatedRecord) WeekLabel() string {
	return AllWeeks
}

// EntriesRow is one persisted weekly entries total.
type EntriesRow struct {
	Year    int
	Week    int
	Entries int
}

// ViewRow is the common shape of weekly and aggregated rows handed to consumers.
type ViewRow struct {
	Week      string
	Name      string
	Position  string
	Team      string
	Score     float64
	Count     int
	Entries   int
	StartPct  float64
	WeekCount int
}

// ViewRowFromSelection converts a weekly record.
func ViewRowFromSelection(r *SelectionRecord) ViewRow {
	return ViewRow{
		Week:      r.WeekLabel(),
		Name:      r.Name,
		Position:  r.Position,
		Team:      r.Team,
		Score:     r.Score,
		Count:     r.Count,
		Entries:   r.Entries,
		StartPct:  r.StartPct,
		WeekCount: 1,
	}
}

// ViewRowFromAggregate converts an "All" row.
func ViewRowFromAggregate(a *AggregatedRecord) ViewRow {
	return ViewRow{
		Week:      a.WeekLabel(),
		Name:      a.Name,
		Position:  a.Position,
		Team:      a.Team,
		Score:     a.Score,
		Count:     a.Count,
		Entries:   a.Entries,
		StartPct:  a.StartPct,
		WeekCount: a.WeekCount,
	}
}

// Trendline is a least-squares fit of score against start percentage.
type Trendline struct {
	Position  string
	Slope     float64
	Intercept float64
	Points    int
	MinPct    float64
	MaxPct    float64
}

// At evaluates the trendline at a start percentage.
func (t Trendline) At(pct float64) float64 {
	return t.Slope*pct + t.Intercept
}

// InsightReport holds the computed analytics over one view of the dataset.
type InsightReport struct {
	Week        string
	Position    string
	Rows        int
	ByPosition  map[string]int
	Trendlines  []Trendline
	TopStarted  []ViewRow
	TopScorers  []ViewRow
	AverageSPct float64
}
