package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"blackout-stats/scraper"
	"blackout-stats/scraper/chrome"
	"blackout-stats/storage"
)

const (
	storeCSV      = "csv"
	storePostgres = "postgres"
)

func newScrapeCmd(a *app) *cobra.Command {
	var (
		store   string
		year    int
		maxWeek int
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Count qualifying entries per week on the contest site",
		Long: `Signs in to the contest site and counts, for every published week, the entries
scoring at least 1.0. Weeks already present in the entries store are skipped, so an
interrupted run can simply be started again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("year") {
				cfg.Year = year
			}
			if cmd.Flags().Changed("max-week") {
				cfg.MaxWeek = maxWeek
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if err := cfg.RequireScraper(); err != nil {
				return err
			}

			runID := uuid.NewString()
			log := a.logger.With("scrape")

			entries, err := openEntriesStore(a, store, runID)
			if err != nil {
				return err
			}
			defer entries.Close()

			site, err := chrome.New(cfg, a.logger)
			if err != nil {
				return err
			}

			runner := scraper.NewRunner(site, entries, a.logger, a.metrics, cfg.Year, cfg.MaxWeek).WithRunID(runID)
			sum, err := runner.Run(cmd.Context())
			a.flushMetrics()
			if err != nil {
				if errors.Is(err, scraper.ErrScrapeFatal) {
					log.Error("Scrape aborted: %v", err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: scraped weeks %v, already recorded %v, not published %v\n",
				sum.RunID, sum.Scraped, sum.Resumed, sum.Unpublished)
			if len(sum.Failed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Weeks without a week index, retry later: %v\n", sum.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", storeCSV, "Entries store: csv or postgres")
	cmd.Flags().IntVar(&year, "year", 0, "Contest year (default: YEAR or the current year)")
	cmd.Flags().IntVar(&maxWeek, "max-week", 0, "Last week to visit (default: MAX_WEEK or 18)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory of the CSV entries log (default: DATA_DIR)")
	return cmd
}

// openEntriesStore opens the scraper's entries log in the chosen backend.
func openEntriesStore(a *app, kind, runID string) (storage.EntriesStore, error) {
	switch kind {
	case storeCSV:
		s, err := storage.OpenCSVEntriesStore(a.cfg.EntriesPath())
		if err != nil {
			return nil, err
		}
		a.logger.Info("Entries log: %s", s.Path())
		return s, nil
	case storePostgres:
		s, err := storage.NewPostgresEntriesStore(a.cfg.DSN(), runID)
		if err != nil {
			a.logger.Error("Make sure Docker is running: docker compose up -d")
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("invalid store: %s (must be '%s' or '%s')", kind, storeCSV, storePostgres)
	}
}
