package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session or check does not exist.
var ErrNotFound = errors.New("not found")

// DB is the impactlog SQLite database.
type DB struct {
	conn *sql.DB
}

// filePragmas apply to on-disk databases. WAL lets the watch daemon read
// while the CLI writes, and busy_timeout makes a writer wait for the lock.
var filePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Open opens the database at dbPath, creating it and its parent
// directory when missing, and migrates it to the current schema.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return open(dbPath, 0, filePragmas)
}

// OpenInMemory opens a migrated in-memory database for tests. Every
// connection to ":memory:" sees its own empty database, so the pool holds
// one connection.
func OpenInMemory() (*DB, error) {
	return open(":memory:", 1, []string{"PRAGMA foreign_keys=ON"})
}

func open(dsn string, maxConns int, pragmas []string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}

	db := &DB{conn: conn}
	if err := db.init(pragmas); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init(pragmas []string) error {
	for _, p := range pragmas {
		if _, err := db.conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return db.Migrate()
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying handle for ad hoc queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}
