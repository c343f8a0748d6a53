// Package cli wires the blackout commands: scrape, load and report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"blackout-stats/config"
	"blackout-stats/metrics"
	"blackout-stats/utils"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  *utils.Logger
	metrics *metrics.Manager
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "blackout",
		Short: "Usage stats for the fantasy football blackout contest",
		Long: `Reshapes the weekly blackout selections sheet into one row per player and week,
reconciles each week's entries total, and scrapes entry counts from the contest site.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (overrides $"+config.FileEnv+")")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	cmd.AddCommand(newScrapeCmd(a), newLoadCmd(a), newReportCmd(a))
	return cmd
}

func (a *app) setup() error {
	if a.configPath != "" {
		if err := os.Setenv(config.FileEnv, a.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	a.cfg = cfg
	a.logger = utils.NewLogger()
	a.logger.SetLevel(utils.ParseLevel(cfg.LogLevel))
	a.metrics = metrics.NewManager()
	return nil
}

// flushMetrics writes the metrics textfile when one is configured.
func (a *app) flushMetrics() {
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.logger.Warn("%v", err)
	}
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
