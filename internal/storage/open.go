package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/guestbook/internal/config"
	"github.com/runnerr0/guestbook/internal/visit"
)

// Open builds the store selected by cfg.Backend. The caller owns the
// returned store and must Close it.
func Open(cfg config.StorageConfig, schema visit.Schema) (Store, error) {
	switch cfg.Backend {
	case config.BackendCSV:
		path, err := cfg.DataPath(cfg.CSVFile)
		if err != nil {
			return nil, err
		}
		store, err := NewCSVStore(path, schema)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendSQLite:
		path, err := cfg.DataPath(cfg.SQLiteFile)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(path, cfg.SQLiteJournalMode, schema)

	case config.BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend needs storage.postgres_dsn")
		}
		return OpenPostgres(cfg.PostgresDSN, schema)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// dbStore closes the database it owns along with the statements.
type dbStore struct {
	*SQLStore
	db *sql.DB
}

func (s *dbStore) Close() error {
	s.SQLStore.Close()
	return s.db.Close()
}

// OpenSQLite opens (creating if needed) a SQLite file, runs migrations and
// returns a ready store.
func OpenSQLite(path, journalMode string, schema visit.Schema) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	return finishOpen(db, SQLite, journalMode, schema, path)
}

// OpenPostgres connects to dsn, runs migrations and returns a ready store.
func OpenPostgres(dsn string, schema visit.Schema) (Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: "postgres", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Path: "postgres", Err: err}
	}
	return finishOpen(db, Postgres, "", schema, "postgres")
}

func finishOpen(db *sql.DB, dialect Dialect, journalMode string, schema visit.Schema, name string) (Store, error) {
	runner := NewMigrationRunner(db, dialect)
	runner.SetJournalMode(journalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "migrate", Path: name, Err: err}
	}

	store, err := NewSQLStore(db, dialect, schema, name)
	if err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Path: name, Err: err}
	}
	return &dbStore{SQLStore: store, db: db}, nil
}

// Copy replaces the contents of dst with every row of src, preserving order
// and identifiers. It returns the number of rows copied.
func Copy(ctx context.Context, src, dst Store) (int, error) {
	rows, err := src.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	if err := dst.ReplaceAll(ctx, rows); err != nil {
		return 0, fmt.Errorf("write destination: %w", err)
	}
	return len(rows), nil
}
