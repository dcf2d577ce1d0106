package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cruise-scraper/models"
	"cruise-scraper/services"
	"cruise-scraper/storage"
)

var fromPostgres bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--from-postgres]",
	Short: "Prints price statistics over the stored pricing rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			rows   []models.PricingRow
			source string
			err    error
		)
		if fromPostgres {
			source = "postgres"
			pg, perr := storage.NewPostgresWriter(cmd.Context(), cfg.DSN(), retryConfig())
			if perr != nil {
				return perr
			}
			defer pg.Close()
			rows, err = pg.FetchAll(cmd.Context())
		} else {
			source = cfg.CSVOutputPath
			rows, err = storage.ReadPricingCSV(cfg.CSVOutputPath)
		}
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		logger.Info("Analysing %d pricing rows from %s", len(rows), source)
		svc := services.NewInsightService(logger)
		svc.Print(os.Stdout, svc.Generate(rows))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&fromPostgres, "from-postgres", false, "Read rows from PostgreSQL instead of the CSV file")
	rootCmd.AddCommand(analyzeCmd)
}
