package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"listing-counter/models"
	"listing-counter/utils"
)

const pgBatchSize = 50

// PostgresWriter mirrors cycle records into PostgreSQL. The table is
// append-only like the CSV series.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter. The initial ping is retried
// with back-off while the database comes up.
func NewPostgresWriter(ctx context.Context, dsn string, maxRetries int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
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
		CREATE TABLE IF NOT EXISTS listing_counts (
			id          SERIAL PRIMARY KEY,
			date        DATE         NOT NULL,
			city        VARCHAR(100) NOT NULL,
			category    VARCHAR(100) NOT NULL,
			finn        INTEGER      NOT NULL DEFAULT 0,
			hjem        INTEGER      NOT NULL DEFAULT 0,
			total       INTEGER      NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listing_counts_city_date ON listing_counts(city, date);
	`)
	return err
}

func (pw *PostgresWriter) Name() string { return "postgres" }

// Write inserts records in batches of 50.
func (pw *PostgresWriter) Write(ctx context.Context, records []models.Record) error {
	for i := 0; i < len(records); i += pgBatchSize {
		end := i + pgBatchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := buildInsert(records[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return nil
}

func buildInsert(batch []models.Record) (string, []interface{}) {
	const cols = 6
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			r.DateString(), r.City, r.Category, r.Finn, r.Hjem, r.Total)
	}

	query := "INSERT INTO listing_counts (date, city, category, finn, hjem, total) VALUES " +
		strings.Join(valueStrings, ",")
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
