package services

import (
	"reflect"
	"testing"

	"blackout-stats/models"
)

func TestFilterSortDropsInvalid(t *testing.T) {
	undefined := rec(1, "Undefined", "QB", 4, 0, 0)
	undefined.EntriesSource = models.EntriesUndefined

	records := []*models.SelectionRecord{
		rec(1, "Keep", "QB", 5, 100, 5),
		rec(1, "Zero Count", "RB", 0, 100, 0),
		rec(0, "Zero Week", "RB", 5, 100, 5),
		rec(2, "  ", "WR", 5, 100, 5),
		undefined,
	}

	got := FilterSort(records)
	if len(got) != 1 || got[0].Name != "Keep" {
		t.Errorf("got %d records, want only Keep", len(got))
	}
}

func TestFilterSortOrdering(t *testing.T) {
	records := []*models.SelectionRecord{
		rec(2, "w2-low", "QB", 1, 100, 1.0),
		rec(1, "w1-tie-a", "QB", 3, 100, 3.0),
		rec(1, "w1-high", "QB", 9, 100, 9.0),
		rec(2, "w2-high", "QB", 20, 100, 20.0),
		rec(1, "w1-tie-b", "QB", 3, 100, 3.0),
	}

	got := FilterSort(records)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	want := []string{"w1-high", "w1-tie-a", "w1-tie-b", "w2-high", "w2-low"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("order: got %v, want %v", names, want)
	}

	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		if !(a.Week < b.Week || (a.Week == b.Week && a.StartPct >= b.StartPct)) {
			t.Errorf("adjacent pair out of order: %+v then %+v", a, b)
		}
	}
}

func TestFilterSortIdempotent(t *testing.T) {
	records := []*models.SelectionRecord{
		rec(3, "C", "WR", 2, 50, 4),
		rec(1, "A", "QB", 0, 50, 0),
		rec(1, "B", "TE", 5, 50, 10),
		rec(3, "D", "WR", 4, 50, 8),
	}
	once := FilterSort(records)
	twice := FilterSort(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filtering twice changed the result: %v vs %v", once, twice)
	}
}
