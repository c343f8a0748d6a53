package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"blackout-stats/config"
	"blackout-stats/metrics"
	"blackout-stats/models"
	"blackout-stats/sheets"
	"blackout-stats/utils"
)

// TableSource loads a spreadsheet table. *sheets.Fetcher satisfies it.
type TableSource interface {
	Table(ctx context.Context, source string, preamble int) (*sheets.Table, error)
}

// Dataset is the cleaned output of one load: weekly rows plus the "All" rows.
type Dataset struct {
	Records    []*models.SelectionRecord
	Aggregates []*models.AggregatedRecord
	// EntriesOrigin names the authoritative entries source used, or "" when
	// every total was estimated.
	EntriesOrigin string
}

// Loader runs the fetch, reshape, reconcile, filter and aggregate pipeline.
type Loader struct {
	cfg        *config.Config
	source     TableSource
	logger     *utils.Logger
	metrics    *metrics.Manager
	reshaper   *Reshaper
	reconciler *Reconciler

	// logRows replaces the local entries file when the scraper's log lives elsewhere.
	logRows   []models.EntriesRow
	logOrigin string
}

// NewLoader wires a Loader. The config is passed in explicitly so tests can
// run without any environment; m may be nil.
func NewLoader(cfg *config.Config, source TableSource, logger *utils.Logger, m *metrics.Manager) *Loader {
	return &Loader{
		cfg:        cfg,
		source:     source,
		logger:     logger,
		metrics:    m,
		reshaper:   NewReshaper(logger),
		reconciler: NewReconciler(logger),
	}
}

// WithEntriesLog uses rows read from the scraper's entries store in place of
// the local entries file. A configured feed still takes precedence.
func (l *Loader) WithEntriesLog(rows []models.EntriesRow, origin string) *Loader {
	l.logRows = rows
	l.logOrigin = origin
	return l
}

// Load fetches the sheet and the entries source concurrently, then builds the dataset.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if err := l.cfg.RequireSheet(); err != nil {
		return nil, err
	}
	started := time.Now()

	var (
		sheet   *sheets.Table
		entries EntriesTable
		origin  string
	)

	pool := utils.NewWorkerPool(2, 0)
	pool.Submit(func() error {
		t, err := l.source.Table(ctx, l.cfg.SheetURL, sheets.SheetPreamble)
		if err != nil {
			return fmt.Errorf("load sheet: %w", err)
		}
		sheet = t
		return nil
	})
	pool.Submit(func() error {
		entries, origin = l.loadEntries(ctx)
		return nil
	})
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	records, err := l.reshaper.Reshape(sheet)
	if err != nil {
		return nil, err
	}

	stats := l.reconciler.Reconcile(records, entries)
	kept := FilterSort(records)
	aggregates := Aggregate(kept)

	l.logger.Info("[loader] %d selections -> %d kept (%d dropped), %d players across all weeks",
		len(records), len(kept), len(records)-len(kept), len(aggregates))
	l.metrics.RecordLoad(len(records), len(kept), stats.Known, stats.Estimated, stats.Undefined, time.Since(started))

	return &Dataset{Records: kept, Aggregates: aggregates, EntriesOrigin: origin}, nil
}

// loadEntries returns the authoritative entries table: the configured feed,
// else the scraper's log for the configured year, else nothing. Failures are
// logged and fall through to estimation.
func (l *Loader) loadEntries(ctx context.Context) (EntriesTable, string) {
	if l.cfg.EntriesURL != "" {
		if table, ok := l.entriesFrom(ctx, l.cfg.EntriesURL); ok {
			return table, l.cfg.EntriesURL
		}
	}

	if l.logRows != nil {
		if table, ok := l.entriesTable(l.logRows, l.logOrigin); ok {
			return table, l.logOrigin
		}
	} else if table, ok := l.entriesFrom(ctx, l.cfg.EntriesPath()); ok {
		return table, l.cfg.EntriesPath()
	}

	l.logger.Warn("[loader] No authoritative entries; estimating from reported percentages")
	return nil, ""
}

func (l *Loader) entriesFrom(ctx context.Context, src string) (EntriesTable, bool) {
	t, err := l.source.Table(ctx, src, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("[loader] No entries file at %s", src)
		} else {
			l.logger.Warn("[loader] Entries source %s unavailable: %v", src, err)
		}
		return nil, false
	}
	rows, err := sheets.ParseEntries(t)
	if err != nil {
		l.logger.Warn("[loader] Entries source %s unusable: %v", src, err)
		return nil, false
	}
	return l.entriesTable(rows, src)
}

func (l *Loader) entriesTable(rows []models.EntriesRow, src string) (EntriesTable, bool) {
	table := NewEntriesTable(rows, l.cfg.Year)
	if len(table) == 0 {
		l.logger.Warn("[loader] Entries source %s has no rows for %d", src, l.cfg.Year)
		return nil, false
	}
	l.logger.Info("[loader] Using %d weekly entries totals from %s", len(table), src)
	return table, true
}
