package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/runnerr0/guestbook/internal/logger"
	"github.com/runnerr0/guestbook/internal/visit"
)

// Store is the append-mostly event log. Implementations must make
// ReplaceAll atomic: readers see either the old rows or the new ones.
type Store interface {
	Append(ctx context.Context, e visit.Event) error
	LoadAll(ctx context.Context) ([]visit.Event, error)
	ReplaceAll(ctx context.Context, rows []visit.Event) error
	Close() error
}

// SQLStore implements Store on a SQLite or Postgres database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	schema  visit.Schema
	name    string

	// Prepared statements
	maxSeq    *sql.Stmt
	insertRow *sql.Stmt
	selectAll *sql.Stmt
}

const insertVisitSQL = `
	INSERT INTO visits (id, seq, ts, weekday, month, gender, age_bracket, purpose, location)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// NewSQLStore creates a SQLStore from an already-opened and migrated
// database. name is used in error messages.
func NewSQLStore(db *sql.DB, dialect Dialect, schema visit.Schema, name string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect, schema: schema, name: name}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.recordSchemaVersion(); err != nil {
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	return s, nil
}

func (s *SQLStore) prepareStatements() error {
	var err error

	s.maxSeq, err = s.db.Prepare(`SELECT COALESCE(MAX(seq), 0) FROM visits`)
	if err != nil {
		return err
	}

	s.insertRow, err = s.db.Prepare(s.dialect.rebind(insertVisitSQL))
	if err != nil {
		return err
	}

	s.selectAll, err = s.db.Prepare(`
		SELECT id, ts, weekday, month, gender, age_bracket, purpose, location
		FROM visits ORDER BY seq
	`)
	if err != nil {
		return err
	}

	return nil
}

func (s *SQLStore) recordSchemaVersion() error {
	_, err := s.db.Exec(s.dialect.rebind(`
		INSERT INTO schema_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`), "schema_version", strconv.Itoa(s.schema.Version))
	return err
}

// SchemaVersion returns the survey schema version recorded in the database.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		"SELECT value FROM schema_meta WHERE key = ?"), "schema_version",
	).Scan(&v)
	if err != nil {
		return 0, s.fail("schema_version", err)
	}
	return strconv.Atoi(v)
}

func (s *SQLStore) fail(op string, err error) error {
	return &StorageError{Op: op, Path: s.name, Err: err}
}

// Append inserts e after the current last row.
func (s *SQLStore) Append(ctx context.Context, e visit.Event) (err error) {
	start := time.Now()
	defer func() { logger.StoreLog(ctx, "append", 1, time.Since(start), err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("append", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	var seq int64
	if err := tx.StmtContext(ctx, s.maxSeq).QueryRowContext(ctx).Scan(&seq); err != nil {
		return s.fail("append", fmt.Errorf("next seq: %w", err))
	}

	if err := s.insert(ctx, tx.StmtContext(ctx, s.insertRow), seq+1, e); err != nil {
		return s.fail("append", err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("append", err)
	}
	return nil
}

func (s *SQLStore) insert(ctx context.Context, stmt *sql.Stmt, seq int64, e visit.Event) error {
	ts := e.RawTimestamp
	if e.Valid() {
		ts = visit.FormatTimestamp(e.Timestamp)
	}
	_, err := stmt.ExecContext(ctx,
		e.ID, seq, ts, e.Weekday, e.Month,
		e.Gender, e.AgeBracket, e.Purpose, e.Location,
	)
	if err != nil {
		return fmt.Errorf("insert visit %s: %w", e.ID, err)
	}
	return nil
}

// LoadAll returns every row in log order. Rows with unparseable
// timestamps are returned as invalid events.
func (s *SQLStore) LoadAll(ctx context.Context) (events []visit.Event, err error) {
	start := time.Now()
	defer func() { logger.StoreLog(ctx, "load_all", len(events), time.Since(start), err) }()

	rows, err := s.selectAll.QueryContext(ctx)
	if err != nil {
		return nil, s.fail("load_all", fmt.Errorf("query visits: %w", err))
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var e visit.Event
		if err := rows.Scan(
			&e.ID, &e.RawTimestamp, &e.Weekday, &e.Month,
			&e.Gender, &e.AgeBracket, &e.Purpose, &e.Location,
		); err != nil {
			return nil, s.fail("load_all", fmt.Errorf("scan visit: %w", err))
		}
		events = append(events, normalizeRow(ctx, s.schema, i, e))
		i++
	}

	if err := rows.Err(); err != nil {
		return nil, s.fail("load_all", err)
	}

	// Return empty slice rather than nil
	if events == nil {
		events = []visit.Event{}
	}

	return events, nil
}

// ReplaceAll rewrites the table inside one transaction.
func (s *SQLStore) ReplaceAll(ctx context.Context, events []visit.Event) (err error) {
	start := time.Now()
	defer func() { logger.StoreLog(ctx, "replace_all", len(events), time.Since(start), err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("replace_all", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM visits"); err != nil {
		return s.fail("replace_all", fmt.Errorf("clear visits: %w", err))
	}

	stmt := tx.StmtContext(ctx, s.insertRow)
	for i, e := range events {
		if err := s.insert(ctx, stmt, int64(i+1), e); err != nil {
			return s.fail("replace_all", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail("replace_all", err)
	}
	return nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.maxSeq, s.insertRow, s.selectAll} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// normalizeRow applies the read-side policy shared by every backend:
// categories are canonicalised, valid rows get their derived fields
// recomputed and invalid rows keep their raw text.
func normalizeRow(ctx context.Context, schema visit.Schema, index int, e visit.Event) visit.Event {
	e.Gender = schema.Normalize(e.Gender)
	e.AgeBracket = schema.Normalize(e.AgeBracket)
	e.Purpose = schema.Normalize(e.Purpose)
	e.Location = schema.Normalize(e.Location)

	ts, err := visit.ParseTimestamp(e.RawTimestamp)
	if err != nil {
		logger.FromContext(ctx).Debug("keeping unparseable row",
			"error", &visit.ParseError{Row: index, Field: "timestamp", Value: e.RawTimestamp, Err: err})
		e.Weekday = visit.NormalizeWeekday(e.Weekday, schema.Locale)
		return e
	}
	e.Timestamp = ts
	e.Derive(schema.Locale)
	return e
}
