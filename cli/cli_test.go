package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blackout-stats/config"
	"blackout-stats/services"
)

// sheetCSV has the two title lines, a header line, then week blocks of seven columns.
const sheetCSV = `Blackout usage,,,,,,,,,,,,,
Updated weekly,,,,,,,,,,,,,
,Cnt,Pct,Pts,Player,Pos,Tm,,Cnt,Pct,Pts,Player,Pos,Tm
,10,5%,12.5,Josh Allen,QB,BUF,,4,2%,20,Josh Allen,QB,BUF
,,,,,,,,30,15%,8,Derrick Henry,RB,BAL
,6,3%,,Justin Tucker,PK,BAL,,,,,,,
`

func setupEnv(t *testing.T, sheet string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.csv")
	if err := os.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHEET_URL", path)
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("YEAR", "2024")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv(config.FileEnv, "")
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLoadExportsCSV(t *testing.T) {
	dir := setupEnv(t, sheetCSV)
	out := filepath.Join(dir, "out", "selections.csv")

	stdout, _, err := run(t, "load", "--out", out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(stdout, "4 weekly rows, 3 all-weeks rows, entries from estimates only") {
		t.Errorf("summary: %q", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1+4+3 {
		t.Fatalf("exported %d records", len(records))
	}
	if got := records[1]; got[0] != "1" || got[1] != "Josh Allen" || got[7] != "5.0" {
		t.Errorf("first row: %v", got)
	}
}

func TestLoadUsesEntriesLog(t *testing.T) {
	dir := setupEnv(t, sheetCSV)
	log := filepath.Join(dir, "data", "2024_entry_counts.csv")
	if err := os.MkdirAll(filepath.Dir(log), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(log, []byte("year,week,entries\n2024,1,100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, "load")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(stdout, "entries from "+log) {
		t.Errorf("summary: %q", stdout)
	}
}

func TestLoadFailureShowsHint(t *testing.T) {
	setupEnv(t, "a\nb\nheader\n")

	_, stderr, err := run(t, "load")
	if !errors.Is(err, services.ErrDataFormat) {
		t.Fatalf("got %v, want ErrDataFormat", err)
	}
	if !strings.Contains(stderr, "Error loading data") || !strings.Contains(stderr, services.Hint) {
		t.Errorf("stderr: %q", stderr)
	}
}

func TestReport(t *testing.T) {
	setupEnv(t, sheetCSV)

	stdout, _, err := run(t, "report", "--position", "qb")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(stdout, "week 2  position QB") {
		t.Errorf("report should default to the latest week: %q", stdout)
	}
	if !strings.Contains(stdout, "Josh Allen") || strings.Contains(stdout, "Derrick Henry") {
		t.Errorf("report rows: %q", stdout)
	}
}

func TestReportAllWeeksAnyCase(t *testing.T) {
	setupEnv(t, sheetCSV)

	stdout, _, err := run(t, "report", "--position", "QB", "--week", "all")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(stdout, "week All  position QB") || !strings.Contains(stdout, "Josh Allen") {
		t.Errorf("all-weeks report: %q", stdout)
	}
}

func TestNormaliseSelection(t *testing.T) {
	tests := []struct {
		pos, week         string
		wantPos, wantWeek string
	}{
		{"all", "ALL", "All", "All"},
		{" qb ", " 3 ", "QB", "3"},
		{"All", "", "All", ""},
	}
	for _, tt := range tests {
		pos, week := normaliseSelection(tt.pos, tt.week)
		if pos != tt.wantPos || week != tt.wantWeek {
			t.Errorf("normaliseSelection(%q, %q) = %q, %q; want %q, %q",
				tt.pos, tt.week, pos, week, tt.wantPos, tt.wantWeek)
		}
	}
}

func TestScrapeRequiresSiteSettings(t *testing.T) {
	setupEnv(t, sheetCSV)
	for _, k := range []string{"BLACKOUT_URL", "SIGNIN_URL", "EMAIL", "PASSWORD"} {
		t.Setenv(k, "")
	}

	_, _, err := run(t, "scrape")
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("got %v, want configuration error", err)
	}
	if !strings.Contains(err.Error(), "BLACKOUT_URL") {
		t.Errorf("error should name the missing setting: %v", err)
	}
}

func TestScrapeRejectsUnknownStore(t *testing.T) {
	setupEnv(t, sheetCSV)
	t.Setenv("BLACKOUT_URL", "https://contest.test/blackout")
	t.Setenv("SIGNIN_URL", "https://contest.test/signin")
	t.Setenv("EMAIL", "me@example.com")
	t.Setenv("PASSWORD", "secret")

	_, _, err := run(t, "scrape", "--store", "sqlite")
	if err == nil || !strings.Contains(err.Error(), "invalid store") {
		t.Fatalf("got %v, want invalid store error", err)
	}
}
