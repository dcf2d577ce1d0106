package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cruise-scraper/config"
	"cruise-scraper/utils"
)

var (
	cfg    *config.Config
	logger *utils.Logger

	csvOutput string
)

var rootCmd = &cobra.Command{
	Use:           "cruise-scraper",
	Short:         "Scrapes Royal Caribbean sailing prices and turns them into pricing rows.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if csvOutput != "" {
			cfg.CSVOutputPath = csvOutput
		}
		logger = utils.NewLoggerWithLevel(cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&csvOutput, "csv-output", "", "Pricing CSV path (overrides CSV_OUTPUT_PATH)")
}

// ExecuteContext runs the CLI and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	start := time.Now()
	err := rootCmd.ExecuteContext(ctx)
	if logger != nil {
		logger.Info("Elapsed time: %s", formatElapsed(time.Since(start)))
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// formatElapsed renders d as whole minutes and seconds, e.g. "3m 07s".
func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}
