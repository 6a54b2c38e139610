// Package models defines the domain types for Raido.
package models

import "time"

// FetchStatus describes the outcome of attempting to retrieve a URL's content.
type FetchStatus string

const (
	StatusNotFetched FetchStatus = "not_fetched"
	StatusSuccess    FetchStatus = "success"
	StatusFailed     FetchStatus = "failed"
	StatusTimeout    FetchStatus = "timeout"
	StatusSkipped    FetchStatus = "skipped"
)

// Valid reports whether s is a member of the closed fetch-status set.
func (s FetchStatus) Valid() bool {
	switch s {
	case StatusNotFetched, StatusSuccess, StatusFailed, StatusTimeout, StatusSkipped:
		return true
	}
	return false
}

// TagCategory groups tags into the fixed vocabulary categories.
type TagCategory string

const (
	CategoryProgrammingLanguage TagCategory = "programming_language"
	CategoryTechnicalTopic      TagCategory = "technical_topic"
	CategoryCulture             TagCategory = "culture"
)

// Valid reports whether c is one of the vocabulary categories.
func (c TagCategory) Valid() bool {
	switch c {
	case CategoryProgrammingLanguage, CategoryTechnicalTopic, CategoryCulture:
		return true
	}
	return false
}

// SourceFile is a dated note file discovered by the scanner.
type SourceFile struct {
	Path string
	Date time.Time
}

// ExtractedLink is a raw link parsed out of a note file. It is the input to
// link-record creation and is never persisted directly.
type ExtractedLink struct {
	URL         string
	Title       string
	Description string
	SourceDate  time.Time
	SourceFile  string
	IndentLevel int
	ParentURL   string
}

// Tag is one entry in the tag catalog.
type Tag struct {
	ID       int64       `json:"id,omitempty"`
	Name     string      `json:"name"`
	Category TagCategory `json:"category"`
}

// TagScore pairs a tag with the confidence assigned by a tagger.
type TagScore struct {
	Tag        Tag
	Confidence float64
}

// LinkTag is a tag association as stored on a link record.
type LinkTag struct {
	Name       string      `json:"name"`
	Category   TagCategory `json:"category"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source"`
}

// LinkRecord is the durable link entity. URL is the natural key and unique
// across all records.
type LinkRecord struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Domain      string    `json:"domain"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	SourceDate  time.Time `json:"source_date"`
	SourceFile  string    `json:"source_file"`
	ParentURL   string    `json:"parent_url,omitempty"`
	IndentLevel int       `json:"indent_level"`

	PageTitle   string      `json:"page_title,omitempty"`
	PageContent string      `json:"page_content,omitempty"`
	FetchStatus FetchStatus `json:"fetch_status"`
	FetchError  string      `json:"fetch_error,omitempty"`
	FetchedAt   *time.Time  `json:"fetched_at,omitempty"`

	Summary         string     `json:"summary,omitempty"`
	SummarizedAt    *time.Time `json:"summarized_at,omitempty"`
	SummarizerModel string     `json:"summarizer_model,omitempty"`

	Tags []LinkTag `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayTitle returns the best available human-readable name for a link.
func (l *LinkRecord) DisplayTitle() string {
	switch {
	case l.Title != "":
		return l.Title
	case l.PageTitle != "":
		return l.PageTitle
	case l.Description != "":
		return l.Description
	}
	return l.URL
}
