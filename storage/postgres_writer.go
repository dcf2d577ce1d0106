package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"cruise-scraper/models"
	"cruise-scraper/utils"
)

const pricingTable = "pricing_rows"

// PostgresWriter appends pricing rows to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to accept
// pings, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pricing_rows (
			id               BIGSERIAL     PRIMARY KEY,
			scrape_timestamp TEXT          NOT NULL DEFAULT '',
			source_url       TEXT          NOT NULL DEFAULT '',
			cruise_id        TEXT          NOT NULL,
			cruise_name      TEXT          NOT NULL DEFAULT '',
			nights           INTEGER,
			ship_name        TEXT          NOT NULL DEFAULT '',
			ship_code        TEXT          NOT NULL DEFAULT '',
			departure        TEXT          NOT NULL DEFAULT '',
			destination_code TEXT          NOT NULL DEFAULT '',
			sailing_id       TEXT          NOT NULL,
			sailing_date     DATE,
			room_type        TEXT          NOT NULL,
			price            NUMERIC(12,2) NOT NULL,
			inserted_at      TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_pricing_rows_cruise    ON pricing_rows(cruise_id);
		CREATE INDEX IF NOT EXISTS idx_pricing_rows_sailing   ON pricing_rows(sailing_id);
		CREATE INDEX IF NOT EXISTS idx_pricing_rows_room_type ON pricing_rows(room_type);
	`)
	return err
}

func (pw *PostgresWriter) Name() string { return "postgres" }

// Append copies rows into pricing_rows inside a single transaction.
func (pw *PostgresWriter) Append(ctx context.Context, rows []models.PricingRow) error {
	if len(rows) == 0 {
		return nil
	}

	txn, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = txn.Rollback() }()

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(pricingTable, models.PricingColumns...))
	if err != nil {
		return fmt.Errorf("postgres: prepare copy: %w", err)
	}

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, copyValues(r)...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("postgres: copy row %s/%s: %w", r.SailingID, r.RoomType, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("postgres: flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("postgres: close copy: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// copyValues returns the row in PricingColumns order with empty nullable
// columns mapped to NULL.
func copyValues(r models.PricingRow) []any {
	rec := r.Record()
	vals := make([]any, len(rec))
	for i, v := range rec {
		vals[i] = v
	}

	if n, err := strconv.Atoi(r.Nights); err == nil {
		vals[4] = n
	} else {
		vals[4] = nil
	}
	if r.SailingDate == "" {
		vals[10] = nil
	}
	return vals
}

// FetchAll retrieves every stored pricing row in insertion order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]models.PricingRow, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT scrape_timestamp, source_url, cruise_id, cruise_name,
		       COALESCE(nights::text, ''), ship_name, ship_code, departure,
		       destination_code, sailing_id, COALESCE(sailing_date::text, ''),
		       room_type, price::text
		FROM pricing_rows
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var out []models.PricingRow
	for rows.Next() {
		var r models.PricingRow
		if err := rows.Scan(
			&r.ScrapeTimestamp, &r.SourceURL, &r.CruiseID, &r.CruiseName,
			&r.Nights, &r.ShipName, &r.ShipCode, &r.Departure,
			&r.DestinationCode, &r.SailingID, &r.SailingDate,
			&r.RoomType, &r.Price,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
