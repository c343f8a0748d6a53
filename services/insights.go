package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"blackout-stats/models"
	"blackout-stats/utils"
)

const topN = 5

// InsightService summarises one selection of the view: per-position
// trendlines of score against start percentage and the top rows.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(rows []models.ViewRow, position, week string) *models.InsightReport {
	report := &models.InsightReport{
		Week:       week,
		Position:   position,
		Rows:       len(rows),
		ByPosition: make(map[string]int),
	}
	if len(rows) == 0 {
		return report
	}

	byPos := make(map[string][]models.ViewRow)
	var pctTotal float64
	for _, r := range rows {
		report.ByPosition[r.Position]++
		byPos[r.Position] = append(byPos[r.Position], r)
		pctTotal += r.StartPct
	}
	report.AverageSPct = round1(pctTotal / float64(len(rows)))

	for _, pos := range orderedPositions(byPos) {
		if tl, ok := FitTrendline(pos, byPos[pos]); ok {
			report.Trendlines = append(report.Trendlines, tl)
		}
	}

	started := append([]models.ViewRow(nil), rows...)
	sort.SliceStable(started, func(i, j int) bool { return started[i].StartPct > started[j].StartPct })
	report.TopStarted = head(started, topN)

	var scored []models.ViewRow
	for _, r := range rows {
		if !math.IsNaN(r.Score) {
			scored = append(scored, r)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	report.TopScorers = head(scored, topN)

	s.logger.Debug("[insights] %d rows, %d trendlines", report.Rows, len(report.Trendlines))
	return report
}

// FitTrendline fits score = slope*start_pct + intercept by least squares.
// It needs at least two scored rows with distinct start percentages.
func FitTrendline(position string, rows []models.ViewRow) (models.Trendline, bool) {
	var n, sx, sy, sxx, sxy float64
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		if math.IsNaN(r.Score) {
			continue
		}
		x, y := r.StartPct, r.Score
		n++
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}
	if n < 2 {
		return models.Trendline{}, false
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return models.Trendline{}, false
	}

	slope := (n*sxy - sx*sy) / den
	return models.Trendline{
		Position:  position,
		Slope:     slope,
		Intercept: (sy - slope*sx) / n,
		Points:    int(n),
		MinPct:    minX,
		MaxPct:    maxX,
	}, true
}

func orderedPositions(byPos map[string][]models.ViewRow) []string {
	rank := make(map[string]int, len(models.Positions))
	for i, p := range models.Positions {
		rank[p] = i
	}
	out := make([]string, 0, len(byPos))
	for p := range byPos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func head(rows []models.ViewRow, n int) []models.ViewRow {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  BLACKOUT USAGE STATS  week %s  position %s\033[0m\n", r.Week, r.Position)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Selections          : \033[1m%d\033[0m\n", r.Rows)
	fmt.Fprintf(w, "  Average start pct   : \033[1m%.1f%%\033[0m\n", r.AverageSPct)
	for _, p := range models.Positions {
		if n := r.ByPosition[p]; n > 0 {
			fmt.Fprintf(w, "  %-3s %s (%d)\n", p, strings.Repeat("█", min(n, 40)), n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Score vs Start Pct trend\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Trendlines) == 0 {
		fmt.Fprintf(w, "  Not enough data for a trendline\n")
	}
	for _, tl := range r.Trendlines {
		fmt.Fprintf(w, "  %-3s score = %+.3f x pct %+.2f   (%d pts, %.1f%%..%.1f%%)\n",
			tl.Position, tl.Slope, tl.Intercept, tl.Points, tl.MinPct, tl.MaxPct)
	}
	fmt.Fprintln(w)

	printRows(w, "Most Started", r.TopStarted, thin)
	printRows(w, "Top Scorers", r.TopScorers, thin)

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func printRows(w io.Writer, title string, rows []models.ViewRow, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(rows) == 0 {
		fmt.Fprintf(w, "  No rows\n\n")
		return
	}
	for i, row := range rows {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-26s %-3s %-4s %6s  \033[1;32m%5.1f%%\033[0m\n",
			i+1, truncate(row.Name, 26), row.Position, row.Team, formatScore(row.Score), row.StartPct)
	}
	fmt.Fprintln(w)
}

func formatScore(f float64) string {
	if math.IsNaN(f) {
		return "-"
	}
	return fmt.Sprintf("%.1f", f)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
