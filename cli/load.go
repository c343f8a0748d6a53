package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"blackout-stats/models"
	"blackout-stats/services"
	"blackout-stats/sheets"
	"blackout-stats/storage"
)

func newLoadCmd(a *app) *cobra.Command {
	var (
		out          string
		toPostgres   bool
		entriesStore string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Build the reconciled selections table and export it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(cmd.Context(), a, entriesStore, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rows := services.NewView(ds).Rows()

			if out != "" {
				w, err := storage.NewCSVWriter(out)
				if err != nil {
					return err
				}
				if err := writeTable(w, rows); err != nil {
					return fmt.Errorf("csv write: %w", err)
				}
				a.logger.Info("Table saved to %s", out)
			}
			if toPostgres {
				pg, err := storage.NewPostgresWriter(a.cfg.DSN())
				if err != nil {
					a.logger.Error("Make sure Docker is running: docker compose up -d")
					return err
				}
				if err := writeTable(pg, rows); err != nil {
					return fmt.Errorf("postgres write: %w", err)
				}
				a.logger.Info("Selections stored in PostgreSQL (table: selections)")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d weekly rows, %d all-weeks rows, entries from %s\n",
				len(ds.Records), len(ds.Aggregates), originLabel(ds.EntriesOrigin))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the table to this CSV file")
	cmd.Flags().BoolVar(&toPostgres, "postgres", false, "Replace the selections table in PostgreSQL")
	cmd.Flags().StringVar(&entriesStore, "entries-store", storeCSV, "Where the scraper's entries log lives: csv or postgres")
	return cmd
}

// loadDataset runs the pipeline. On failure the user sees the error and the
// configuration hint rather than a bare error.
func loadDataset(ctx context.Context, a *app, entriesStore string, errOut io.Writer) (*services.Dataset, error) {
	fetcher := sheets.NewFetcher(a.logger, a.cfg.MaxRetries)
	loader := services.NewLoader(a.cfg, fetcher, a.logger, a.metrics)

	if entriesStore == storePostgres {
		s, err := storage.NewPostgresEntriesStore(a.cfg.DSN(), "")
		if err != nil {
			return nil, err
		}
		rows, err := s.Rows()
		_ = s.Close()
		if err != nil {
			return nil, err
		}
		loader.WithEntriesLog(rows, "postgres:entry_counts")
	}

	ds, err := loader.Load(ctx)
	a.flushMetrics()
	if err != nil {
		fmt.Fprintf(errOut, "Error loading data: %v\n%s\n", err, services.Hint)
		return nil, err
	}
	return ds, nil
}

// writeTable writes rows through w and closes it.
func writeTable(w storage.DatasetWriter, rows []models.ViewRow) error {
	if err := w.Write(rows); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func originLabel(origin string) string {
	if origin == "" {
		return "estimates only"
	}
	return origin
}
