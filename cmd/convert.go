package cmd

import (
	"github.com/spf13/cobra"

	"cruise-scraper/services"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file-or-dir>",
	Short: "Converts cleaned snapshot JSON into pricing rows.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sinks, closeSinks, err := openSinks(ctx)
		if err != nil {
			return err
		}
		defer closeSinks()

		logger.Info("Converting %s to %s", args[0], cfg.CSVOutputPath)
		n, err := services.NewConverter(logger, nil, sinks...).ConvertPath(ctx, args[0])
		if err != nil {
			logger.Error("Conversion finished with errors after %d rows: %v", n, err)
			return err
		}
		logger.Info("Successfully converted %d rows", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
