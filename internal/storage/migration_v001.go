package storage

import "database/sql"

// migrateV001 creates the visits table. seq keeps the log order that the
// flat-file backend gets for free. Statements are plain SQL understood by
// both SQLite and Postgres.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visits (
			id          TEXT PRIMARY KEY,
			seq         BIGINT NOT NULL,
			ts          TEXT NOT NULL,
			weekday     TEXT NOT NULL DEFAULT '',
			month       INTEGER NOT NULL DEFAULT 0,
			gender      TEXT NOT NULL DEFAULT '',
			age_bracket TEXT NOT NULL DEFAULT '',
			purpose     TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_seq ON visits(seq)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_ts ON visits(ts)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateV002 adds a key/value table recording which survey schema version
// last wrote the data.
func migrateV002(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}
