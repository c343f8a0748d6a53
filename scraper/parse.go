package scraper

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	weekPagerSelector = ".competition-week-pager"
	weekSelector      = "a.week, div.week"
	currentWeekClass  = "--current"
	resultRowSelector = "tbody tr"
	scoreCellSelector = ".number"
	nextPageSelector  = "a.next_page"
)

// ParseWeekPager reads the week pager of the contest page. Relative links are
// resolved against base. The current week is often rendered without a link;
// it maps to currentURL. Elements whose label is not a week number, or that
// have no usable URL, are left out.
func ParseWeekPager(r io.Reader, base, currentURL string) ([]WeekLink, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse week pager: %w", err)
	}

	pager := doc.Find(weekPagerSelector).First()
	if pager.Length() == 0 {
		return nil, fmt.Errorf("week pager %q not found", weekPagerSelector)
	}

	var links []WeekLink
	pager.Find(weekSelector).Each(func(_ int, s *goquery.Selection) {
		week, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil {
			return
		}

		var link string
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			link = resolve(base, href)
		} else if class, _ := s.Attr("class"); strings.Contains(class, currentWeekClass) {
			link = currentURL
		}
		if link == "" {
			return
		}
		links = append(links, WeekLink{Week: week, URL: link})
	})
	return links, nil
}

// ParseResultPage reads the score of each row of the first results table and
// the link to the next page. A disabled next control ends pagination.
func ParseResultPage(r io.Reader, base string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("results table not found")
	}

	page := &Page{}
	table.Find(resultRowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(scoreCellSelector)
		if cells.Length() == 0 {
			return
		}
		page.Scores = append(page.Scores, strings.TrimSpace(cells.Last().Text()))
	})

	next := doc.Find(nextPageSelector).First()
	if next.Length() > 0 && !next.HasClass("disabled") {
		if href, ok := next.Attr("href"); ok && strings.TrimSpace(href) != "" {
			page.Next = resolve(base, href)
		}
	}
	return page, nil
}

// resolve makes href absolute against base. An unparseable href yields "".
func resolve(base, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}
