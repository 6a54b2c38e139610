// Package store provides SQLite-backed persistence for link records, tags,
// and the source-file processing log, with optional FTS5 full-text search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS links (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	url          TEXT UNIQUE NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	domain       TEXT NOT NULL,
	source_date  DATE NOT NULL,
	source_file  TEXT NOT NULL,
	parent_url   TEXT NOT NULL DEFAULT '',
	indent_level INTEGER NOT NULL DEFAULT 0,

	page_title   TEXT NOT NULL DEFAULT '',
	page_content TEXT NOT NULL DEFAULT '',
	fetch_status TEXT NOT NULL DEFAULT 'not_fetched',
	fetch_error  TEXT NOT NULL DEFAULT '',
	fetched_at   TIMESTAMP,

	summary          TEXT NOT NULL DEFAULT '',
	summarized_at    TIMESTAMP,
	summarizer_model TEXT NOT NULL DEFAULT '',

	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tags (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT UNIQUE NOT NULL,
	category TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS link_tags (
	link_id    INTEGER NOT NULL REFERENCES links(id) ON DELETE CASCADE,
	tag_id     INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	confidence REAL NOT NULL DEFAULT 1.0,
	source     TEXT NOT NULL DEFAULT 'auto',
	PRIMARY KEY (link_id, tag_id)
);

CREATE TABLE IF NOT EXISTS processing_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file  TEXT UNIQUE NOT NULL,
	file_hash    TEXT NOT NULL,
	processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_links_source_date ON links(source_date);
CREATE INDEX IF NOT EXISTS idx_links_domain ON links(domain);
CREATE INDEX IF NOT EXISTS idx_links_fetch_status ON links(fetch_status);
`

// DB wraps a sql.DB with link-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
