package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/runnerr0/guestbook/internal/logger"
	"github.com/runnerr0/guestbook/internal/visit"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVStore keeps the log in a single UTF-8 CSV file with a BOM, so the file
// opens cleanly in spreadsheet tools. Every write rewrites the whole file
// through a temp file and rename.
type CSVStore struct {
	path   string
	schema visit.Schema
	mu     sync.Mutex
}

// NewCSVStore returns a store for path, creating its directory.
func NewCSVStore(path string, schema visit.Schema) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	return &CSVStore{path: path, schema: schema}, nil
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

func (s *CSVStore) fail(op string, err error) error {
	return &StorageError{Op: op, Path: s.path, Err: err}
}

// Append adds e at the end of the log.
func (s *CSVStore) Append(ctx context.Context, e visit.Event) (err error) {
	start := time.Now()
	defer func() { logger.StoreLog(ctx, "append", 1, time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.write(append(rows, e))
}

// LoadAll reads every row in file order. A missing file is created with a
// header only.
func (s *CSVStore) LoadAll(ctx context.Context) (rows []visit.Event, err error) {
	start := time.Now()
	defer func() { logger.StoreLog(ctx, "load_all", len(rows), time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ReplaceAll atomically overwrites the file with rows.
func (s *CSVStore) ReplaceAll(ctx context.Context, rows []visit.Event) (err error) {
	start := time.Now()
	defer func() { logger.StoreLog(ctx, "replace_all", len(rows), time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(rows)
}

// Close is a no-op; the file is only open during calls.
func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) load(ctx context.Context) ([]visit.Event, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
		return []visit.Event{}, nil
	}
	if err != nil {
		return nil, s.fail("load_all", err)
	}

	rows, err := s.decode(ctx, bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, s.fail("load_all", err)
	}
	return rows, nil
}

func (s *CSVStore) decode(ctx context.Context, data []byte) ([]visit.Event, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return []visit.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := mapHeader(header)
	if idx[colTimestamp] == -1 {
		return nil, fmt.Errorf("header has no timestamp column: %v", header)
	}

	rows := []visit.Event{}
	seen := map[string]bool{}
	for i := 0; ; i++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", i+1, err)
		}
		if isBlank(rec) {
			continue
		}

		field := func(c column) string {
			if idx[c] < 0 || idx[c] >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx[c]])
		}

		e := visit.Event{
			ID:           field(colID),
			RawTimestamp: field(colTimestamp),
			Weekday:      field(colWeekday),
			Gender:       field(colGender),
			AgeBracket:   field(colAgeBracket),
			Purpose:      field(colPurpose),
			Location:     field(colLocation),
		}
		e.Month, _ = strconv.Atoi(field(colMonth))
		if e.ID == "" || seen[e.ID] {
			e.ID = visit.LegacyID(i, rec...)
		}
		seen[e.ID] = true

		rows = append(rows, normalizeRow(ctx, s.schema, i, e))
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// write replaces the file via a temp file in the same directory, so a crash
// leaves either the old file or the new one.
func (s *CSVStore) write(rows []visit.Event) error {
	withLocation := s.schema.LocationEnabled
	for _, e := range rows {
		if e.Location != "" {
			withLocation = true
			break
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return s.fail("write", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(utf8BOM); err != nil {
		tmp.Close()
		return s.fail("write", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(headerFor(s.schema.Locale, withLocation)); err != nil {
		tmp.Close()
		return s.fail("write", err)
	}
	for _, e := range rows {
		if err := w.Write(encodeRow(e, withLocation)); err != nil {
			tmp.Close()
			return s.fail("write", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return s.fail("write", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return s.fail("write", err)
	}
	if err := tmp.Close(); err != nil {
		return s.fail("write", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return s.fail("write", err)
	}
	return nil
}

func encodeRow(e visit.Event, withLocation bool) []string {
	ts := e.RawTimestamp
	if e.Valid() {
		ts = visit.FormatTimestamp(e.Timestamp)
	}
	month := ""
	if e.Month > 0 {
		month = strconv.Itoa(e.Month)
	}
	rec := []string{ts, e.Weekday, month, e.Gender, e.AgeBracket, e.Purpose}
	if withLocation {
		rec = append(rec, e.Location)
	}
	return append(rec, e.ID)
}
