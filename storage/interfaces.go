package storage

import (
	"context"

	"cruise-scraper/models"
)

// PricingRowWriter is the interface any pricing sink must satisfy. Append
// never deduplicates: converting the same snapshot twice stores its rows
// twice.
type PricingRowWriter interface {
	Name() string
	Append(ctx context.Context, rows []models.PricingRow) error
}

// Archiver copies finished snapshot files somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, paths ...string) error
}
