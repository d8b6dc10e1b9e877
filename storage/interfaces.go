package storage

import (
	"context"
	"io"

	"listing-counter/models"
)

// SeriesWriter is the authoritative, append-only record store.
type SeriesWriter interface {
	AppendBatch(records []models.Record) error
}

// SeriesReader reads the series back for charting and export.
type SeriesReader interface {
	Read(region string) ([]models.Record, error)
	Export(w io.Writer) error
}

// RecordSink mirrors each cycle's records to a secondary backend. Sinks are
// best effort: a failing sink never fails a cycle.
type RecordSink interface {
	Name() string
	Write(ctx context.Context, records []models.Record) error
	Close() error
}
