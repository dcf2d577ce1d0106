package cmd

import (
	"context"
	"fmt"
	"time"

	"cruise-scraper/storage"
	"cruise-scraper/utils"
)

func retryConfig() utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
}

// openSinks returns the CSV sink plus Postgres when enabled. The returned
// func closes whatever was opened.
func openSinks(ctx context.Context) ([]storage.PricingRowWriter, func(), error) {
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("csv sink: %w", err)
	}
	sinks := []storage.PricingRowWriter{csvWriter}
	closeAll := func() {}

	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retryConfig())
		if err != nil {
			logger.Error("Make sure PostgreSQL is running: docker compose up -d")
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		closeAll = func() {
			if err := pg.Close(); err != nil {
				logger.Warn("[postgres] Close failed: %v", err)
			}
		}
	}
	return sinks, closeAll, nil
}
