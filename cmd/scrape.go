package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cruise-scraper/metrics"
	"cruise-scraper/models"
	"cruise-scraper/scraper/browser"
	"cruise-scraper/scraper/royalcaribbean"
	"cruise-scraper/services"
	"cruise-scraper/storage"
)

var (
	maxCruises  int
	maxSailings int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--max-cruises N] [--max-sailings M]",
	Short: "Scrapes the cruise search page and appends pricing rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("max-cruises") {
			cfg.MaxCruises = maxCruises
		}
		if cmd.Flags().Changed("max-sailings") {
			cfg.MaxSailings = maxSailings
		}
		return runScrape(cmd.Context())
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&maxCruises, "max-cruises", 0, "Maximum cruises to scrape (0 = all)")
	scrapeCmd.Flags().IntVar(&maxSailings, "max-sailings", 5, "Maximum sailings per cruise (0 = all)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(ctx context.Context) error {
	start := time.Now()
	m := metrics.New()
	defer func() {
		m.ObserveRun(time.Since(start))
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("[metrics] %v", err)
		}
	}()

	logger.Info("=== Cruise price scraper starting ===")
	logger.Info("Config: max cruises %d | max sailings %d | headless %t", cfg.MaxCruises, cfg.MaxSailings, cfg.Headless)

	sinks, closeSinks, err := openSinks(ctx)
	if err != nil {
		return err
	}
	defer closeSinks()

	b, err := browser.Launch(cfg, logger)
	if err != nil {
		return err
	}
	result, err := royalcaribbean.New(cfg, b, logger, m).Scrape(ctx)
	b.Close()
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	cleaned := services.NewCleaner(logger).Clean(result, time.Now())
	rawPath, cleanedPath, err := storage.NewSnapshotWriter(cfg.DataDir).Write(result.RawRecord(result.StartedAt), cleaned, result.StartedAt)
	if err != nil {
		return fmt.Errorf("scrape: snapshot: %w", err)
	}
	logger.Info("Saved raw snapshot to %s", rawPath)
	logger.Info("Saved cleaned snapshot to %s", cleanedPath)

	archiveSnapshots(ctx, rawPath, cleanedPath)

	logger.Info("Converting %s to pricing rows...", cleanedPath)
	n, err := services.NewConverter(logger, m, sinks...).ConvertFile(ctx, cleanedPath)
	if err != nil {
		return fmt.Errorf("scrape: convert: %w", err)
	}
	logger.Info("Appended %d pricing rows to %s", n, cfg.CSVOutputPath)
	logFailures(result)
	return nil
}

// archiveSnapshots uploads both snapshot files when S3 is configured.
// Failures are logged only.
func archiveSnapshots(ctx context.Context, paths ...string) {
	if cfg.S3Bucket == "" {
		return
	}
	archive, err := storage.NewS3Archive(ctx, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
		Prefix:    cfg.S3Prefix,
	}, retryConfig(), logger)
	if err != nil {
		logger.Warn("[s3] Archive disabled: %v", err)
		return
	}
	if err := archive.Archive(ctx, paths...); err != nil {
		logger.Warn("[s3] Archive failed: %v", err)
	}
}

func logFailures(result *models.ExtractionResult) {
	for _, c := range result.Cruises {
		if c.Status != models.StatusComplete {
			logger.Warn("Cruise %s %s: %s", c.ID, c.Status, c.Error)
		}
	}
}
