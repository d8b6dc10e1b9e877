package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"listing-counter/models"
)

// Header is the fixed column layout of the series file.
var Header = []string{"date", "city", "category", "finn", "hjem", "total"}

var (
	// ErrSchemaMismatch is returned when an existing file's header differs
	// from Header. The store never rewrites such a file.
	ErrSchemaMismatch = errors.New("csv: series header mismatch")

	// ErrNoData is returned by Export when nothing has been written yet.
	ErrNoData = errors.New("csv: no series data yet")
)

// CSVStore is the append-only series file. Appends hold the write lock for
// a whole batch, reads hold the read lock, so a reader never observes a
// partially written row.
type CSVStore struct {
	mu       sync.RWMutex
	path     string
	verified bool
}

// NewCSVStore returns a store backed by path. The file is created on the
// first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Append writes a single record.
func (s *CSVStore) Append(r models.Record) error {
	return s.AppendBatch([]models.Record{r})
}

// AppendBatch writes records in order as one unit and fsyncs the file.
// The header is written first when the file is new or empty; otherwise the
// existing header is checked once per store lifetime.
func (s *CSVStore) AppendBatch(records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("csv: create data dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csv: stat %q: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
		s.verified = true
	} else {
		if !s.verified {
			if err := checkHeader(csv.NewReader(f)); err != nil {
				if errors.Is(err, io.EOF) {
					return fmt.Errorf("%w: %q has no header row", ErrSchemaMismatch, s.path)
				}
				return err
			}
			s.verified = true
		}
		if err := terminateLastLine(f, info.Size()); err != nil {
			return err
		}
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("csv: seek end: %w", err)
		}
	}

	for _, r := range records {
		if err := w.Write(encodeRow(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("csv: sync: %w", err)
	}
	return nil
}

// Read returns the stored records. An empty region returns every row in
// append order; otherwise the region's rows are returned sorted by date,
// keeping append order within a day. A missing file reads as empty.
func (s *CSVStore) Read(region string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	if err := checkHeader(r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var records []models.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read %q: %w", s.path, err)
		}
		rec, err := decodeRow(row)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		if region != "" && rec.City != region {
			continue
		}
		records = append(records, rec)
	}

	if region != "" {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Date.Before(records[j].Date)
		})
	}
	return records, nil
}

// Export streams the series file unmodified.
func (s *CSVStore) Export(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoData
	}
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("csv: export: %w", err)
	}
	return nil
}

func checkHeader(r *csv.Reader) error {
	got, err := r.Read()
	if err == io.EOF {
		return io.EOF
	}
	if err != nil && !errors.Is(err, csv.ErrFieldCount) {
		return fmt.Errorf("csv: read header: %w", err)
	}
	if !slices.Equal(got, Header) {
		return fmt.Errorf("%w: got %v", ErrSchemaMismatch, got)
	}
	return nil
}

// terminateLastLine appends a newline when the file does not already end
// with one, so the next row starts on its own line.
func terminateLastLine(f *os.File, size int64) error {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return fmt.Errorf("csv: read tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.WriteAt([]byte{'\n'}, size); err != nil {
		return fmt.Errorf("csv: terminate last line: %w", err)
	}
	return nil
}

func encodeRow(r models.Record) []string {
	return []string{
		r.DateString(),
		r.City,
		r.Category,
		strconv.Itoa(r.Finn),
		strconv.Itoa(r.Hjem),
		strconv.Itoa(r.Total),
	}
}

func decodeRow(row []string) (models.Record, error) {
	date, err := time.Parse(models.DateLayout, row[0])
	if err != nil {
		return models.Record{}, fmt.Errorf("parse date %q: %w", row[0], err)
	}

	var counts [3]int
	for i, raw := range row[3:6] {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.Record{}, fmt.Errorf("parse %s %q: %w", Header[3+i], raw, err)
		}
		counts[i] = n
	}

	return models.Record{
		Date:     date,
		City:     row[1],
		Category: row[2],
		Finn:     counts[0],
		Hjem:     counts[1],
		Total:    counts[2],
	}, nil
}
