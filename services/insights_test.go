package services

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"blackout-stats/models"
	"blackout-stats/utils"
)

func viewRows() []models.ViewRow {
	return []models.ViewRow{
		{Week: "3", Name: "Chalk QB", Position: "QB", Team: "BUF", Score: 30, StartPct: 40},
		{Week: "3", Name: "Mid QB", Position: "QB", Team: "KC", Score: 20, StartPct: 20},
		{Week: "3", Name: "Punt QB", Position: "QB", Team: "NYG", Score: 10, StartPct: 0},
		{Week: "3", Name: "Lone RB", Position: "RB", Team: "SF", Score: 25, StartPct: 30},
		{Week: "3", Name: "Blank Score", Position: "PK", Team: "BAL", Score: math.NaN(), StartPct: 10},
	}
}

func TestFitTrendline(t *testing.T) {
	tl, ok := FitTrendline("QB", viewRows()[:3])
	if !ok {
		t.Fatal("expected a trendline for three points")
	}
	if math.Abs(tl.Slope-0.5) > 1e-9 || math.Abs(tl.Intercept-10) > 1e-9 {
		t.Errorf("fit: got slope=%v intercept=%v, want 0.5, 10", tl.Slope, tl.Intercept)
	}
	if tl.At(30) != 25 {
		t.Errorf("At(30): got %v", tl.At(30))
	}
	if tl.MinPct != 0 || tl.MaxPct != 40 || tl.Points != 3 {
		t.Errorf("range: got %+v", tl)
	}

	if _, ok := FitTrendline("RB", viewRows()[3:4]); ok {
		t.Error("a single point should not produce a trendline")
	}
	same := []models.ViewRow{{Score: 1, StartPct: 5}, {Score: 2, StartPct: 5}}
	if _, ok := FitTrendline("WR", same); ok {
		t.Error("identical x values should not produce a trendline")
	}
}

func TestInsightGenerate(t *testing.T) {
	svc := NewInsightService(utils.Discard())
	r := svc.Generate(viewRows(), AllPositions, "3")

	if r.Rows != 5 || r.ByPosition["QB"] != 3 {
		t.Errorf("counts: got %+v", r)
	}
	if len(r.Trendlines) != 1 || r.Trendlines[0].Position != "QB" {
		t.Errorf("trendlines: got %+v", r.Trendlines)
	}
	if r.TopStarted[0].Name != "Chalk QB" {
		t.Errorf("top started: got %+v", r.TopStarted[0])
	}
	if len(r.TopScorers) != 4 {
		t.Errorf("rows without a score are not ranked, got %d", len(r.TopScorers))
	}
	if r.AverageSPct != 20 {
		t.Errorf("average start pct: got %v, want 20", r.AverageSPct)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.Discard())
	r := svc.Generate(nil, "QB", "1")
	if r.Rows != 0 || len(r.Trendlines) != 0 {
		t.Errorf("expected an empty report, got %+v", r)
	}

	var buf bytes.Buffer
	svc.Print(&buf, r)
	if !strings.Contains(buf.String(), "Not enough data") {
		t.Errorf("empty report output: %q", buf.String())
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(utils.Discard())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(viewRows(), AllPositions, "3"))

	out := buf.String()
	for _, want := range []string{"week 3", "Chalk QB", "Most Started", "Top Scorers"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
