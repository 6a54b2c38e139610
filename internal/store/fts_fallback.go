//go:build !sqlite_fts5

package store

import (
	"database/sql"

	"github.com/starford/raido/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search falls back to LIKE over the links table.
	return nil
}

func refreshFTS(_ *sql.Tx, _ int64) error {
	// Text fields live in the links table; nothing extra to maintain.
	return nil
}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]models.LinkRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + query + "%"
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE title LIKE ? OR description LIKE ? OR page_content LIKE ? OR summary LIKE ?
		ORDER BY source_date DESC
		LIMIT ?
	`, like, like, like, like, limit)
}
