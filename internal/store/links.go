package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/fetch"
	"github.com/starford/raido/internal/models"
)

// emptyContentMin is the page_content length below which a successful fetch
// counts as empty for the manual refetch path.
const emptyContentMin = 50

const linkColumns = `id, url, title, description, domain, source_date, source_file,
	parent_url, indent_level, page_title, page_content, fetch_status, fetch_error,
	fetched_at, summary, summarized_at, summarizer_model, created_at, updated_at`

// prefixedLinkColumns is linkColumns qualified for queries that join links
// with other tables.
const prefixedLinkColumns = `links.id, links.url, links.title, links.description,
	links.domain, links.source_date, links.source_file, links.parent_url,
	links.indent_level, links.page_title, links.page_content, links.fetch_status,
	links.fetch_error, links.fetched_at, links.summary, links.summarized_at,
	links.summarizer_model, links.created_at, links.updated_at`

// LinkExists reports whether a link with this URL is already stored.
func (db *DB) LinkExists(url string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM links WHERE url = ?`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: link exists: %w", err)
	}
	return true, nil
}

// InsertLink stores a newly extracted link with fetch_status not_fetched and
// returns its id. Inserting a URL that already exists is a no-op that
// returns the existing record's id.
func (db *DB) InsertLink(link models.ExtractedLink) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO links (url, title, description, domain, source_date,
		                   source_file, parent_url, indent_level, fetch_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, link.URL, link.Title, link.Description, fetch.Domain(link.URL),
		link.SourceDate.Format("2006-01-02"), link.SourceFile,
		link.ParentURL, link.IndentLevel, string(models.StatusNotFetched))
	if err != nil {
		return 0, fmt.Errorf("store: insert link: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		var id int64
		if err := tx.QueryRow(`SELECT id FROM links WHERE url = ?`, link.URL).Scan(&id); err != nil {
			return 0, fmt.Errorf("store: resolve existing link: %w", err)
		}
		return id, tx.Commit()
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	if err := refreshFTS(tx, id); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// UpdateFetchResult records the outcome of the fetch stage and keeps the
// full-text index in step within the same transaction.
func (db *DB) UpdateFetchResult(id int64, status models.FetchStatus, content, pageTitle, fetchErr string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		UPDATE links
		SET fetch_status = ?, page_content = ?, page_title = ?,
		    fetch_error = ?, fetched_at = datetime('now'),
		    updated_at = datetime('now')
		WHERE id = ?
	`, string(status), content, pageTitle, fetchErr, id)
	if err != nil {
		return fmt.Errorf("store: update fetch result: %w", err)
	}
	if err := refreshFTS(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateSummary records the summarize-stage output.
func (db *DB) UpdateSummary(id int64, summary, model string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		UPDATE links
		SET summary = ?, summarizer_model = ?,
		    summarized_at = datetime('now'), updated_at = datetime('now')
		WHERE id = ?
	`, summary, model, id)
	if err != nil {
		return fmt.Errorf("store: update summary: %w", err)
	}
	if err := refreshFTS(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ResetFetchStatus clears fetch data so a link is picked up by the next
// fetch stage. Manual retry path only.
func (db *DB) ResetFetchStatus(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		UPDATE links
		SET fetch_status = ?, page_content = '', page_title = '',
		    fetch_error = '', fetched_at = NULL, updated_at = datetime('now')
		WHERE id = ?
	`, string(models.StatusNotFetched), id)
	if err != nil {
		return fmt.Errorf("store: reset fetch status: %w", err)
	}
	if err := refreshFTS(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ResetSummary clears summary data so a link can be re-summarized.
func (db *DB) ResetSummary(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		UPDATE links
		SET summary = '', summarizer_model = '',
		    summarized_at = NULL, updated_at = datetime('now')
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("store: reset summary: %w", err)
	}
	if err := refreshFTS(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetLink returns a link by id, including its tags.
func (db *DB) GetLink(id int64) (*models.LinkRecord, error) {
	row := db.conn.QueryRow(`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get link: %w", err)
	}
	tags, err := db.TagsForLink(id)
	if err != nil {
		return nil, err
	}
	link.Tags = tags
	return link, nil
}

// UnfetchedLinks returns links still awaiting the fetch stage, newest
// source date first.
func (db *DB) UnfetchedLinks(limit int) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE fetch_status = ?
		ORDER BY source_date DESC
		LIMIT ?
	`, string(models.StatusNotFetched), limit)
}

// UnsummarizedLinks returns links whose fetch stage has completed (any
// terminal status) but that have no summary yet.
func (db *DB) UnsummarizedLinks(limit int) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE fetch_status != ? AND summary = ''
		ORDER BY source_date DESC
		LIMIT ?
	`, string(models.StatusNotFetched), limit)
}

// UntaggedLinks returns processed links that have no tags yet.
func (db *DB) UntaggedLinks(limit int) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE fetch_status != ?
		  AND id NOT IN (SELECT DISTINCT link_id FROM link_tags)
		ORDER BY source_date DESC
		LIMIT ?
	`, string(models.StatusNotFetched), limit)
}

// EmptyContentLinks returns links fetched successfully whose extracted
// content is empty or shorter than the usefulness threshold.
func (db *DB) EmptyContentLinks(limit int) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE fetch_status = ? AND length(page_content) < ?
		ORDER BY source_date DESC
		LIMIT ?
	`, string(models.StatusSuccess), emptyContentMin, limit)
}

// ProcessedLinks returns links whose fetch stage has completed, for the
// manual retag path.
func (db *DB) ProcessedLinks(limit int) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE fetch_status != ?
		ORDER BY source_date DESC
		LIMIT ?
	`, string(models.StatusNotFetched), limit)
}

func (db *DB) queryLinks(query string, args ...any) ([]models.LinkRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query links: %w", err)
	}
	defer rows.Close()

	var out []models.LinkRecord
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan link: %w", err)
		}
		out = append(out, *link)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*models.LinkRecord, error) {
	var l models.LinkRecord
	var status string
	var fetchedAt, summarizedAt sql.NullTime
	err := row.Scan(
		&l.ID, &l.URL, &l.Title, &l.Description, &l.Domain, &l.SourceDate,
		&l.SourceFile, &l.ParentURL, &l.IndentLevel, &l.PageTitle,
		&l.PageContent, &status, &l.FetchError, &fetchedAt, &l.Summary,
		&summarizedAt, &l.SummarizerModel, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.FetchStatus = models.FetchStatus(status)
	l.FetchedAt = nullTime(fetchedAt)
	l.SummarizedAt = nullTime(summarizedAt)
	return &l, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
