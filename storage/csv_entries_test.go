package storage

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"blackout-stats/models"
)

func TestCSVEntriesStore(t *testing.T) {
	Convey("Given an entries log path in a fresh directory", t, func() {
		path := filepath.Join(t.TempDir(), "data", "2024_entry_counts.csv")

		Convey("Opening creates the file with only a header", func() {
			s, err := OpenCSVEntriesStore(path)
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			b, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "year,week,entries\n")
		})

		Convey("Appended rows are on disk before Close", func() {
			s, err := OpenCSVEntriesStore(path)
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.Append(models.EntriesRow{Year: 2024, Week: 1, Entries: 1850}), ShouldBeNil)

			b, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "year,week,entries\n2024,1,1850\n")
		})

		Convey("Reopening keeps earlier rows and does not repeat the header", func() {
			s, err := OpenCSVEntriesStore(path)
			So(err, ShouldBeNil)
			So(s.Append(models.EntriesRow{Year: 2024, Week: 1, Entries: 1850}), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			s, err = OpenCSVEntriesStore(path)
			So(err, ShouldBeNil)
			defer s.Close()

			has, err := s.Has(2024, 1)
			So(err, ShouldBeNil)
			So(has, ShouldBeTrue)

			has, _ = s.Has(2023, 1)
			So(has, ShouldBeFalse)

			So(s.Append(models.EntriesRow{Year: 2024, Week: 2, Entries: 1700}), ShouldBeNil)
			rows, err := s.Rows()
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, []models.EntriesRow{
				{Year: 2024, Week: 1, Entries: 1850},
				{Year: 2024, Week: 2, Entries: 1700},
			})

			b, _ := os.ReadFile(path)
			So(string(b), ShouldEqual, "year,week,entries\n2024,1,1850\n2024,2,1700\n")
		})

		Convey("A week is written at most once", func() {
			s, err := OpenCSVEntriesStore(path)
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.Append(models.EntriesRow{Year: 2024, Week: 3, Entries: 10}), ShouldBeNil)
			So(s.Append(models.EntriesRow{Year: 2024, Week: 3, Entries: 99}), ShouldBeNil)

			rows, _ := s.Rows()
			So(rows, ShouldResemble, []models.EntriesRow{{Year: 2024, Week: 3, Entries: 10}})
		})

		Convey("A hand-edited file without a final newline stays well formed", func() {
			So(os.MkdirAll(filepath.Dir(path), 0755), ShouldBeNil)
			So(os.WriteFile(path, []byte("year,week,entries\n2024,1.0,1850"), 0644), ShouldBeNil)

			s, err := OpenCSVEntriesStore(path)
			So(err, ShouldBeNil)
			So(s.Append(models.EntriesRow{Year: 2024, Week: 2, Entries: 0}), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			b, _ := os.ReadFile(path)
			So(string(b), ShouldEqual, "year,week,entries\n2024,1.0,1850\n2024,2,0\n")
		})

		Convey("A file with a foreign header is rejected", func() {
			So(os.MkdirAll(filepath.Dir(path), 0755), ShouldBeNil)
			So(os.WriteFile(path, []byte("name,score\nx,1\n"), 0644), ShouldBeNil)

			_, err := OpenCSVEntriesStore(path)
			So(err, ShouldNotBeNil)
		})
	})
}
