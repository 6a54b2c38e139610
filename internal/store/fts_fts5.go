//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/raido/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS links_fts USING fts5(
			link_id UNINDEXED,
			title,
			description,
			content,
			summary,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

// refreshFTS rewrites a link's full-text row from its current text fields.
// Must run inside the transaction that mutated those fields.
func refreshFTS(tx *sql.Tx, id int64) error {
	var title, description, content, summary string
	err := tx.QueryRow(`
		SELECT title, description, page_content, summary
		FROM links WHERE id = ?
	`, id).Scan(&title, &description, &content, &summary)
	if err != nil {
		return fmt.Errorf("store: read fts source: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links_fts WHERE link_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete fts row: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO links_fts (link_id, title, description, content, summary)
		VALUES (?, ?, ?, ?, ?)
	`, id, title, description, content, summary); err != nil {
		return fmt.Errorf("store: upsert fts row: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search over titles, descriptions, page
// content, and summaries, best matches first.
func (db *DB) Search(query string, limit int) ([]models.LinkRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.queryLinks(`
		SELECT `+prefixedLinkColumns+` FROM links
		JOIN links_fts ON links.id = links_fts.link_id
		WHERE links_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
}
