package store

import (
	"fmt"

	"github.com/starford/raido/internal/models"
)

// AddTag associates a tag with a link, creating the catalog entry on first
// use. Re-tagging the same pair replaces the confidence and source.
func (db *DB) AddTag(linkID int64, tag models.Tag, confidence float64, source string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO tags (name, category) VALUES (?, ?)`,
		tag.Name, string(tag.Category),
	); err != nil {
		return fmt.Errorf("store: upsert tag: %w", err)
	}

	var tagID int64
	if err := tx.QueryRow(`SELECT id FROM tags WHERE name = ?`, tag.Name).Scan(&tagID); err != nil {
		return fmt.Errorf("store: resolve tag id: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO link_tags (link_id, tag_id, confidence, source)
		VALUES (?, ?, ?, ?)
	`, linkID, tagID, confidence, source); err != nil {
		return fmt.Errorf("store: add link tag: %w", err)
	}
	return tx.Commit()
}

// ClearTagsForLink removes all tag associations for one link.
func (db *DB) ClearTagsForLink(linkID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM link_tags WHERE link_id = ?`, linkID); err != nil {
		return fmt.Errorf("store: clear link tags: %w", err)
	}
	return nil
}

// ClearAllTags removes every link-tag association, keeping the catalog.
func (db *DB) ClearAllTags() error {
	if _, err := db.conn.Exec(`DELETE FROM link_tags`); err != nil {
		return fmt.Errorf("store: clear all tags: %w", err)
	}
	return nil
}

// TagsForLink returns a link's tags ordered by descending confidence.
func (db *DB) TagsForLink(linkID int64) ([]models.LinkTag, error) {
	rows, err := db.conn.Query(`
		SELECT t.name, t.category, lt.confidence, lt.source
		FROM tags t
		JOIN link_tags lt ON t.id = lt.tag_id
		WHERE lt.link_id = ?
		ORDER BY lt.confidence DESC
	`, linkID)
	if err != nil {
		return nil, fmt.Errorf("store: tags for link: %w", err)
	}
	defer rows.Close()

	var out []models.LinkTag
	for rows.Next() {
		var lt models.LinkTag
		var category string
		if err := rows.Scan(&lt.Name, &category, &lt.Confidence, &lt.Source); err != nil {
			return nil, err
		}
		lt.Category = models.TagCategory(category)
		out = append(out, lt)
	}
	return out, rows.Err()
}

// TagCount is one catalog entry with its usage count.
type TagCount struct {
	Name     string             `json:"name"`
	Category models.TagCategory `json:"category"`
	Count    int                `json:"count"`
}

// AllTags returns every catalog tag with its link count, most used first.
func (db *DB) AllTags() ([]TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT t.name, t.category, COUNT(lt.link_id) AS count
		FROM tags t
		LEFT JOIN link_tags lt ON t.id = lt.tag_id
		GROUP BY t.id
		ORDER BY count DESC, t.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: all tags: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		var category string
		if err := rows.Scan(&tc.Name, &category, &tc.Count); err != nil {
			return nil, err
		}
		tc.Category = models.TagCategory(category)
		out = append(out, tc)
	}
	return out, rows.Err()
}

// LinksByTag returns all links carrying the named tag, newest first.
func (db *DB) LinksByTag(tagName string) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+prefixedLinkColumns+` FROM links
		JOIN link_tags lt ON links.id = lt.link_id
		JOIN tags t ON lt.tag_id = t.id
		WHERE t.name = ?
		ORDER BY links.source_date DESC
	`, tagName)
}
