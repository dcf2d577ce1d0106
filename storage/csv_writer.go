package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"cruise-scraper/models"
)

// SchemaVersion identifies the PricingColumns layout written by CSVWriter.
const SchemaVersion = 1

// ErrHeaderMismatch is returned when an existing CSV does not start with the
// expected pricing header.
var ErrHeaderMismatch = errors.New("csv: header does not match pricing columns")

// CSVWriter appends pricing rows to a single CSV file. The header is written
// only when the file is new or empty. It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares a writer for path. Intermediate directories are
// created automatically; the file itself is created on the first Append.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

func (c *CSVWriter) Name() string { return "csv" }

func (c *CSVWriter) Path() string { return c.path }

// Append writes rows at the end of the file. An empty batch leaves the file
// untouched.
func (c *CSVWriter) Append(_ context.Context, rows []models.PricingRow) error {
	if len(rows) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", c.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: stat %q: %w", c.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(models.PricingColumns); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write header: %w", err)
		}
	}

	for _, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// ReadPricingCSV loads every row from a CSV written by CSVWriter.
func ReadPricingCSV(path string) ([]models.PricingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(models.PricingColumns)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	if !slices.Equal(header, models.PricingColumns) {
		return nil, ErrHeaderMismatch
	}

	var rows []models.PricingRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		rows = append(rows, models.PricingRowFromRecord(rec))
	}
	return rows, nil
}
