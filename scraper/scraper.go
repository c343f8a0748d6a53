// Package scraper counts the qualifying entries of each contest week.
//
// The Runner walks weeks 1..MaxWeek in one signed-in session. Weeks already
// present in the entries log are skipped without touching the site, so an
// interrupted run can simply be started again.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"blackout-stats/metrics"
	"blackout-stats/models"
	"blackout-stats/utils"
)

// ErrScrapeFatal marks failures that end the whole run: the browser could
// not start or the sign-in form is missing.
var ErrScrapeFatal = errors.New("scraper: fatal")

// MinScore is the lowest score that counts as an entry. Result pages are
// ordered by score, so the first row below it ends the week.
const MinScore = 1.0

// WeekLink is one element of the week pager.
type WeekLink struct {
	Week int
	URL  string
}

// Page is one page of a week's results.
type Page struct {
	// Scores holds the raw text of each row's trailing score cell, in page order.
	Scores []string
	// Next is the absolute URL of the next page, or "" on the last page.
	Next string
}

// Site is the part of the contest website the Runner drives.
type Site interface {
	// SignIn submits the credentials. verified is false when the post-login
	// marker never appeared; an error means the form itself was missing.
	SignIn(ctx context.Context) (verified bool, err error)
	// WeekIndex returns the weeks listed by the pager.
	WeekIndex(ctx context.Context) ([]WeekLink, error)
	// ResultPage loads one page of results.
	ResultPage(ctx context.Context, url string) (*Page, error)
	Close() error
}

// EntriesLog is the durable, append-only record of completed weeks.
type EntriesLog interface {
	Has(year, week int) (bool, error)
	Append(row models.EntriesRow) error
}

// Summary describes what one run did.
type Summary struct {
	RunID       string
	Scraped     []int
	Resumed     []int
	Unpublished []int
	Failed      []int
}

// Runner drives a Site week by week and appends each week's count to an EntriesLog.
type Runner struct {
	site    Site
	log     EntriesLog
	logger  *utils.Logger
	metrics *metrics.Manager

	year    int
	maxWeek int
	runID   string
}

// NewRunner creates a Runner for one contest year. m may be nil.
func NewRunner(site Site, log EntriesLog, logger *utils.Logger, m *metrics.Manager, year, maxWeek int) *Runner {
	return &Runner{
		site:    site,
		log:     log,
		logger:  logger.With("scraper"),
		metrics: m,
		year:    year,
		maxWeek: maxWeek,
	}
}

// WithRunID tags the run's log lines and summary.
func (r *Runner) WithRunID(id string) *Runner {
	r.runID = id
	return r
}

// Run signs in and processes every week up to maxWeek. The site is closed on
// every return path.
func (r *Runner) Run(ctx context.Context) (sum Summary, err error) {
	sum.RunID = r.runID
	defer func() {
		if cerr := r.site.Close(); cerr != nil {
			r.logger.Warn("Closing site: %v", cerr)
		}
	}()

	r.logger.Info("Run %s: year %d, weeks 1..%d", r.runID, r.year, r.maxWeek)

	verified, err := r.site.SignIn(ctx)
	if err != nil {
		return sum, fmt.Errorf("sign in: %w", err)
	}
	if !verified {
		r.logger.Warn("Could not verify sign-in, continuing anyway")
		r.metrics.RecordSigninUnverified()
	}

	for week := 1; week <= r.maxWeek; week++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		done, err := r.log.Has(r.year, week)
		if err != nil {
			return sum, fmt.Errorf("entries log lookup for week %d: %w", week, err)
		}
		if done {
			r.logger.Debug("Week %d already recorded, skipping", week)
			r.metrics.RecordWeek(metrics.WeekResumed)
			sum.Resumed = append(sum.Resumed, week)
			continue
		}

		links, err := r.site.WeekIndex(ctx)
		if err != nil {
			r.logger.Warn("Week %d: week index unavailable: %v", week, err)
			sum.Failed = append(sum.Failed, week)
			continue
		}
		url := FindWeek(links, week)
		if url == "" {
			r.logger.Debug("Week %d not published", week)
			r.metrics.RecordWeek(metrics.WeekUnpublished)
			sum.Unpublished = append(sum.Unpublished, week)
			continue
		}

		r.logger.Info("Processing week %d", week)
		count, err := r.CountEntries(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			r.logger.Warn("Week %d: stopped early after %d entries: %v", week, count, err)
		}

		if err := r.log.Append(models.EntriesRow{Year: r.year, Week: week, Entries: count}); err != nil {
			return sum, fmt.Errorf("recording week %d: %w", week, err)
		}
		r.metrics.RecordWeek(metrics.WeekScraped)
		r.metrics.RecordWeekEntries(week, count)
		sum.Scraped = append(sum.Scraped, week)
		r.logger.Info("Week %d: %d entries", week, count)
	}

	r.logger.Info("Run %s done: %d scraped, %d resumed, %d unpublished, %d failed",
		r.runID, len(sum.Scraped), len(sum.Resumed), len(sum.Unpublished), len(sum.Failed))
	return sum, nil
}

// CountEntries pages through a week's results counting scores of at least
// MinScore, stopping at the first lower score. Unparseable scores are
// skipped. On a page error the count so far is returned with the error.
func (r *Runner) CountEntries(ctx context.Context, url string) (int, error) {
	visited := utils.NewURLSet()
	count := 0

	for url != "" {
		if !visited.Add(url) {
			r.logger.Warn("Pagination revisits %s, ending week", url)
			return count, nil
		}

		page, err := r.site.ResultPage(ctx, url)
		r.metrics.RecordPage(err)
		if err != nil {
			return count, fmt.Errorf("result page %s: %w", url, err)
		}

		for _, raw := range page.Scores {
			score, err := parseScore(raw)
			if err != nil {
				r.logger.Warn("Could not parse score %q", raw)
				r.metrics.RecordScoreParseError()
				continue
			}
			if score < MinScore {
				r.logger.Debug("Reached scores below %.1f after %d pages", MinScore, visited.Size())
				return count, nil
			}
			count++
		}
		url = page.Next
	}
	r.logger.Debug("Last page reached after %d pages", visited.Size())
	return count, nil
}

// FindWeek returns the URL of the pager element whose label is week, or "".
func FindWeek(links []WeekLink, week int) string {
	for _, l := range links {
		if l.Week == week {
			return l.URL
		}
	}
	return ""
}

// parseScore rejects NaN and infinities, which ParseFloat would accept.
func parseScore(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score %q is not a finite number", raw)
	}
	return f, nil
}
