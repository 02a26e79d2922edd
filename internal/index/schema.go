// Package index maintains a derived SQLite search index over the work and
// note directories, with optional FTS5 full-text search. The record files
// stay the source of truth; the index can be deleted and rebuilt by Sync.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Collection names, matching the store directory names.
const (
	Works = "works"
	Notes = "notes"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS works (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	other_title TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_works_type_status ON works(type, status);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL DEFAULT 0,
	checksum   TEXT NOT NULL DEFAULT ''
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func tableFor(collection string) (string, error) {
	switch collection {
	case Works:
		return "works", nil
	case Notes:
		return "notes", nil
	}
	return "", fmt.Errorf("index: unknown collection %q", collection)
}
