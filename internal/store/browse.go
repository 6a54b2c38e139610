package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

// Stats summarizes pipeline progress across the whole store.
type Stats struct {
	TotalLinks int `json:"total_links"`
	Fetched    int `json:"fetched"`
	Summarized int `json:"summarized"`
	Tagged     int `json:"tagged"`
}

// GetStats counts totals for the user-visible run report.
func (db *DB) GetStats() (Stats, error) {
	var s Stats
	steps := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM links`, nil, &s.TotalLinks},
		{`SELECT COUNT(*) FROM links WHERE fetch_status = ?`, []any{string(models.StatusSuccess)}, &s.Fetched},
		{`SELECT COUNT(*) FROM links WHERE summary != ''`, nil, &s.Summarized},
		{`SELECT COUNT(DISTINCT link_id) FROM link_tags`, nil, &s.Tagged},
	}
	for _, st := range steps {
		if err := db.conn.QueryRow(st.query, st.args...).Scan(st.dest); err != nil {
			return Stats{}, fmt.Errorf("store: stats: %w", err)
		}
	}
	return s, nil
}

// RecentLinks returns the most recent links by source date.
func (db *DB) RecentLinks(limit int) ([]models.LinkRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		ORDER BY source_date DESC, id DESC
		LIMIT ?
	`, limit)
}

// LinksByDateRange returns links whose source date falls in [from, to].
func (db *DB) LinksByDateRange(from, to time.Time) ([]models.LinkRecord, error) {
	return db.queryLinks(`
		SELECT `+linkColumns+` FROM links
		WHERE source_date BETWEEN ? AND ?
		ORDER BY source_date DESC
	`, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// BrowseFilter narrows and orders a paginated link listing.
type BrowseFilter struct {
	Tags     []string // every named tag must be present
	Domain   string
	DateFrom string // ISO date, inclusive
	DateTo   string // ISO date, inclusive
	SortBy   string // date_desc (default), date_asc, title, domain
}

var sortOrders = map[string]string{
	"date_desc": "source_date DESC, id DESC",
	"date_asc":  "source_date ASC, id ASC",
	"title":     "COALESCE(NULLIF(title, ''), NULLIF(description, ''), url) ASC",
	"domain":    "domain ASC, source_date DESC",
}

// LinksPaginated returns one page of filtered links plus the total count of
// matches.
func (db *DB) LinksPaginated(page, perPage int, filter BrowseFilter) ([]models.LinkRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 25
	}

	conditions := []string{"1=1"}
	var args []any

	if len(filter.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Tags)), ",")
		conditions = append(conditions, `
			id IN (
				SELECT lt.link_id FROM link_tags lt
				JOIN tags t ON lt.tag_id = t.id
				WHERE t.name IN (`+placeholders+`)
				GROUP BY lt.link_id
				HAVING COUNT(DISTINCT t.name) = ?
			)`)
		for _, tag := range filter.Tags {
			args = append(args, tag)
		}
		args = append(args, len(filter.Tags))
	}
	if filter.Domain != "" {
		conditions = append(conditions, "domain = ?")
		args = append(args, filter.Domain)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, "source_date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, "source_date <= ?")
		args = append(args, filter.DateTo)
	}

	where := strings.Join(conditions, " AND ")
	orderBy, ok := sortOrders[filter.SortBy]
	if !ok {
		orderBy = sortOrders["date_desc"]
	}

	var total int
	if err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM links WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count links: %w", err)
	}

	pageArgs := append(args, perPage, (page-1)*perPage)
	links, err := db.queryLinks(
		`SELECT `+linkColumns+` FROM links WHERE `+where+
			` ORDER BY `+orderBy+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// DomainCount is one domain with its link count.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// AllDomains returns every domain with its link count, most linked first.
func (db *DB) AllDomains() ([]DomainCount, error) {
	rows, err := db.conn.Query(`
		SELECT domain, COUNT(*) AS count
		FROM links
		GROUP BY domain
		ORDER BY count DESC, domain ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: all domains: %w", err)
	}
	defer rows.Close()

	var out []DomainCount
	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// DateCount is one source date with its link count.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DateCounts returns link counts per source date, newest first.
func (db *DB) DateCounts() ([]DateCount, error) {
	rows, err := db.conn.Query(`
		SELECT source_date, COUNT(*) AS count
		FROM links
		GROUP BY source_date
		ORDER BY source_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: date counts: %w", err)
	}
	defer rows.Close()

	var out []DateCount
	for rows.Next() {
		var dc DateCount
		var d time.Time
		if err := rows.Scan(&d, &dc.Count); err != nil {
			return nil, err
		}
		dc.Date = d.Format("2006-01-02")
		out = append(out, dc)
	}
	return out, rows.Err()
}
