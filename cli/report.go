package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"blackout-stats/models"
	"blackout-stats/services"
	"blackout-stats/storage"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		position     string
		week         string
		fromPostgres bool
		entriesStore string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print start percentage and score insights for one position and week",
		Long: `Prints the most started players, the top scorers and a score vs start percentage
trendline per position. --week defaults to the most recent week; "All" selects the
all-weeks rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []models.ViewRow
			if fromPostgres {
				pg, err := storage.NewPostgresWriter(a.cfg.DSN())
				if err != nil {
					a.logger.Error("Make sure Docker is running: docker compose up -d")
					return err
				}
				rows, err = pg.FetchAll()
				_ = pg.Close()
				if err != nil {
					return err
				}
			} else {
				ds, err := loadDataset(cmd.Context(), a, entriesStore, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				rows = services.NewView(ds).Rows()
			}

			position, week = normaliseSelection(position, week)
			if week == "" {
				week = services.LatestWeek(rows)
			}
			selected := services.SelectRows(rows, position, week)

			svc := services.NewInsightService(a.logger)
			svc.Print(cmd.OutOrStdout(), svc.Generate(selected, position, week))
			return nil
		},
	}

	cmd.Flags().StringVar(&position, "position", services.AllPositions, "QB, RB, WR, TE, PK, ST or All")
	cmd.Flags().StringVar(&week, "week", "", "Week number or All (default: most recent week)")
	cmd.Flags().BoolVar(&fromPostgres, "postgres", false, "Read the table stored by `load --postgres`")
	cmd.Flags().StringVar(&entriesStore, "entries-store", storeCSV, "Where the scraper's entries log lives: csv or postgres")
	return cmd
}

// normaliseSelection accepts "all", "qb", " 3 " and the like.
func normaliseSelection(position, week string) (string, string) {
	position = strings.TrimSpace(position)
	if strings.EqualFold(position, services.AllPositions) {
		position = services.AllPositions
	} else {
		position = strings.ToUpper(position)
	}

	week = strings.TrimSpace(week)
	if strings.EqualFold(week, models.AllWeeks) {
		week = models.AllWeeks
	}
	return position, week
}
