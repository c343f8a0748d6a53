package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"blackout-stats/config"
	"blackout-stats/utils"
)

func TestExportURL(t *testing.T) {
	tests := []struct {
		share   string
		want    string
		wantErr bool
	}{
		{
			share: "https://docs.google.com/spreadsheets/d/1AbC-xyz/edit#gid=123456",
			want:  "https://docs.google.com/spreadsheets/d/1AbC-xyz/export?format=csv&gid=123456",
		},
		{
			share: "https://docs.google.com/spreadsheets/d/1AbC-xyz/edit?gid=42#gid=42",
			want:  "https://docs.google.com/spreadsheets/d/1AbC-xyz/export?format=csv&gid=42",
		},
		{share: "https://docs.google.com/spreadsheets/d/1AbC-xyz/edit", wantErr: true},
		{share: "https://example.com/gid=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.share, func(t *testing.T) {
			got, err := ExportURL(tt.share)
			if tt.wantErr {
				if !errors.Is(err, config.ErrConfiguration) {
					t.Fatalf("ExportURL(%q): got err %v, want configuration error", tt.share, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExportURL(%q): unexpected error %v", tt.share, err)
			}
			if got != tt.want {
				t.Errorf("ExportURL(%q) = %q; want %q", tt.share, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		source string
		want   sourceKind
	}{
		{"https://docs.google.com/spreadsheets/d/abc/edit#gid=0", sourceGoogleSheet},
		{"https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=0", sourceHTTP},
		{"http://localhost:8080/entries.csv", sourceHTTP},
		{"./data/selections.XLSX", sourceXLSXFile},
		{"./data/2024_entry_counts.csv", sourceCSVFile},
	}
	for _, tt := range tests {
		if got := classify(tt.source); got != tt.want {
			t.Errorf("classify(%q) = %v; want %v", tt.source, got, tt.want)
		}
	}
}

func TestReadCSVSkipsPreambleAndHeader(t *testing.T) {
	data := "Blackout 2024,,\nupdated weekly,,\nh1,h2,h3\na,b,c\nd,e\n"
	table, err := ReadCSV(strings.NewReader(data), SheetPreamble)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if table.Width() != 3 {
		t.Errorf("Width: got %d, want 3", table.Width())
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(table.Rows))
	}
	if table.Rows[1][1] != "e" {
		t.Errorf("ragged row not preserved: %v", table.Rows[1])
	}
}

func TestReadCSVShortInput(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("only one line\n"), SheetPreamble)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(table.Rows) != 0 || table.Width() != 0 {
		t.Errorf("expected empty table, got %+v", table)
	}
}

func TestParseEntries(t *testing.T) {
	data := "year,Week,ENTRIES\n2024,1,200\n2024,2,\n2024,3,abc\n2024,4,0\n2024,5,310.0\n"
	table, err := ReadCSV(strings.NewReader(data), 0)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	rows, err := ParseEntries(table)
	if err != nil {
		t.Fatalf("ParseEntries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d (%v), want 2", len(rows), rows)
	}
	if rows[0].Year != 2024 || rows[0].Week != 1 || rows[0].Entries != 200 {
		t.Errorf("row 0: got %+v", rows[0])
	}
	if rows[1].Week != 5 || rows[1].Entries != 310 {
		t.Errorf("row 1: got %+v", rows[1])
	}
}

func TestParseEntriesMissingColumns(t *testing.T) {
	table := &Table{Header: []string{"Week", "Total"}}
	if _, err := ParseEntries(table); err == nil {
		t.Fatal("expected error when Entries column is missing")
	}
}

func TestFetcherDownloadsAndRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("Week,Entries\n1,200\n"))
	}))
	defer srv.Close()

	f := NewFetcher(utils.Discard(), 3).WithClient(srv.Client())
	f.retry.BaseDelay = 0

	table, err := f.Table(context.Background(), srv.URL+"/entries.csv", 0)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
	if table.Column("entries") != 1 || len(table.Rows) != 1 {
		t.Errorf("unexpected table %+v", table)
	}
}

func TestFetcherReadsLocalCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.csv")
	if err := os.WriteFile(path, []byte("year,week,entries\n2024,1,150\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := NewFetcher(utils.Discard(), 1).Table(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	rows, err := ParseEntries(table)
	if err != nil || len(rows) != 1 || rows[0].Entries != 150 {
		t.Errorf("ParseEntries: got %v, %v", rows, err)
	}
}
