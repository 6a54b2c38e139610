package api

import (
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// LinkListResponse wraps paginated link listings.
type LinkListResponse struct {
	Links   []models.LinkRecord `json:"links"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Query   string              `json:"query"`
	Results []models.LinkRecord `json:"results"`
	Total   int                 `json:"total"`
}

// TagListResponse wraps the tag catalog with usage counts.
type TagListResponse struct {
	Tags []store.TagCount `json:"tags"`
}

// DomainListResponse wraps per-domain link counts.
type DomainListResponse struct {
	Domains []store.DomainCount `json:"domains"`
}

// DateListResponse wraps per-date link counts.
type DateListResponse struct {
	Dates []store.DateCount `json:"dates"`
}
