package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cruise-scraper/metrics"
	"cruise-scraper/storage"
	"cruise-scraper/utils"
)

// Converter turns processed snapshots into pricing rows and appends them to
// every configured sink.
type Converter struct {
	sinks   []storage.PricingRowWriter
	metrics *metrics.RunMetrics
	logger  *utils.Logger
}

func NewConverter(logger *utils.Logger, m *metrics.RunMetrics, sinks ...storage.PricingRowWriter) *Converter {
	return &Converter{sinks: sinks, metrics: m, logger: logger}
}

// ConvertPath converts a single snapshot file, or every *.json file in a
// directory in name order. It returns the number of rows produced.
func (c *Converter) ConvertPath(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("convert: path does not exist: %w", err)
	}
	if info.IsDir() {
		return c.ConvertDir(ctx, path)
	}
	return c.ConvertFile(ctx, path)
}

// ConvertDir keeps going past files that fail and reports them together.
func (c *Converter) ConvertDir(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("convert: list %q: %w", dir, err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		c.logger.Warn("[convert] No JSON files found in %s", dir)
		return 0, nil
	}
	c.logger.Info("[convert] Found %d JSON files to process", len(files))

	total := 0
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := c.ConvertFile(ctx, f)
		total += n
		if err != nil {
			c.logger.Error("[convert] %v", err)
			errs = append(errs, err)
		}
	}

	c.logger.Info("[convert] Total: %d rows added from %d files", total, len(files))
	return total, errors.Join(errs...)
}

// ConvertFile appends the file's rows to every sink, even after one of them
// fails. It returns the row count when at least one sink took the rows, so
// sinks can end up out of step: a retry duplicates rows in the sinks that
// succeeded.
func (c *Converter) ConvertFile(ctx context.Context, path string) (int, error) {
	c.logger.Info("[convert] Processing %s", path)

	rec, err := storage.ReadCleanedRecord(path)
	if err != nil {
		return 0, err
	}

	rows := Flatten(rec)
	if len(rows) == 0 {
		c.logger.Warn("[convert] No priced rows in %s", path)
		return 0, nil
	}

	appended := 0
	var errs []error
	for _, sink := range c.sinks {
		if err := sink.Append(ctx, rows); err != nil {
			errs = append(errs, fmt.Errorf("convert: %s: %s sink: %w", path, sink.Name(), err))
			continue
		}
		appended++
		c.metrics.RowsAppended(sink.Name(), len(rows))
		c.logger.Info("[convert] Appended %d rows to %s", len(rows), sink.Name())
	}

	if appended == 0 && len(c.sinks) > 0 {
		return 0, errors.Join(errs...)
	}
	if len(errs) > 0 {
		c.logger.Warn("[convert] %s reached %d of %d sinks", path, appended, len(c.sinks))
	}
	return len(rows), errors.Join(errs...)
}
