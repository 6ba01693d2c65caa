package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// migrations are applied in order. The schema version is the number of
// migrations applied, so new ones are appended and never edited.
var migrations = [][]string{
	// v1: sessions, their outcome checks, saved weekly reviews.
	{
		`CREATE TABLE sessions (
			id                    TEXT PRIMARY KEY,
			title                 TEXT NOT NULL,
			notes                 TEXT,
			duration_minutes      INTEGER NOT NULL CHECK (duration_minutes > 0),
			created_at            TEXT NOT NULL,
			primary_metric_key    TEXT NOT NULL,
			secondary_metric_keys TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE outcome_checks (
			id                TEXT PRIMARY KEY,
			session_id        TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			metric_key        TEXT NOT NULL,
			check_window_days INTEGER NOT NULL,
			due_at            TEXT NOT NULL,
			outcome_level     TEXT NOT NULL DEFAULT 'NONE',
			metric_value      REAL,
			note              TEXT,
			updated_at        TEXT NOT NULL
		)`,
		`CREATE TABLE reviews (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at      TEXT NOT NULL,
			period_start  TEXT NOT NULL,
			period_end    TEXT NOT NULL,
			total_score   REAL NOT NULL,
			session_count INTEGER NOT NULL,
			version       TEXT NOT NULL
		)`,
		`CREATE INDEX idx_sessions_created ON sessions(created_at)`,
		`CREATE INDEX idx_checks_session ON outcome_checks(session_id)`,
		`CREATE INDEX idx_checks_due ON outcome_checks(outcome_level, due_at)`,
	},
}

// currentSchemaVersion is the version of a fully migrated database.
var currentSchemaVersion = len(migrations)

// Migrate brings the schema up to date. Each migration commits together
// with its version bump, so a failure leaves the last good version.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version, err := db.SchemaVersion()
	if errors.Is(err, sql.ErrNoRows) {
		version = 0
	} else if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema v%d is newer than this binary (v%d)", version, currentSchemaVersion)
	}

	for v := version; v < currentSchemaVersion; v++ {
		if err := db.apply(v+1, migrations[v]); err != nil {
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	return version, err
}

func (db *DB) apply(version int, statements []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
