package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/export"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

const defaultPerPage = 25

// Handler holds API route handlers.
type Handler struct {
	db   *store.DB
	feed export.FeedOptions
}

// NewHandler creates a new Handler. feed configures the RSS endpoint.
func NewHandler(db *store.DB, feed export.FeedOptions) *Handler {
	return &Handler{db: db, feed: feed}
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// queryDate validates a YYYY-MM-DD query parameter. Empty is allowed.
func queryDate(r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return "", true
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "", false
	}
	return v, true
}

// withTags loads tag assignments for each link in a listing.
func (h *Handler) withTags(links []models.LinkRecord) []models.LinkRecord {
	for i := range links {
		tags, err := h.db.TagsForLink(links[i].ID)
		if err != nil {
			continue
		}
		links[i].Tags = tags
	}
	return links
}

// ListLinks handles GET /links: paginated browse with filters.
// Query parameters: page, per_page, sort (date_desc, date_asc, title,
// domain), tag (repeatable, AND-matched), domain, date_from, date_to.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", defaultPerPage)

	dateFrom, ok := queryDate(r, "date_from")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("date_from must be YYYY-MM-DD"))
		return
	}
	dateTo, ok := queryDate(r, "date_to")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("date_to must be YYYY-MM-DD"))
		return
	}

	filter := store.BrowseFilter{
		Tags:     q["tag"],
		Domain:   q.Get("domain"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		SortBy:   q.Get("sort"),
	}
	links, total, err := h.db.LinksPaginated(page, perPage, filter)
	if err != nil {
		slog.Error("list links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{
		Links:   h.withTags(links),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// RecentLinks handles GET /links/recent.
func (h *Handler) RecentLinks(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	links, err := h.db.RecentLinks(limit)
	if err != nil {
		slog.Error("recent links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{
		Links: h.withTags(links),
		Total: len(links),
	})
}

// GetLink handles GET /links/{id}.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid link id"))
		return
	}
	link, err := h.db.GetLink(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get link failed", slog.Int64("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Search handles GET /search?q=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit := queryInt(r, "limit", 100)

	results, err := h.db.Search(query, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Results: h.withTags(results),
		Total:   len(results),
	})
}

// ListTags handles GET /tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.AllTags()
	if err != nil {
		slog.Error("list tags failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// LinksByTag handles GET /tags/{name}/links.
func (h *Handler) LinksByTag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	links, err := h.db.LinksByTag(name)
	if err != nil {
		slog.Error("links by tag failed", slog.String("tag", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{
		Links: h.withTags(links),
		Total: len(links),
	})
}

// ListDomains handles GET /domains.
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.db.AllDomains()
	if err != nil {
		slog.Error("list domains failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DomainListResponse{Domains: domains})
}

// ListDates handles GET /dates.
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.db.DateCounts()
	if err != nil {
		slog.Error("list dates failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DateListResponse{Dates: dates})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Feed handles GET /feed.xml: an RSS 2.0 feed of recent links.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	limit := h.feed.Limit
	if limit <= 0 {
		limit = 50
	}
	links, err := h.db.RecentLinks(limit)
	if err != nil {
		slog.Error("feed query failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	opts := h.feed
	opts.Limit = limit
	xml, err := export.GenerateRSS(h.withTags(links), opts)
	if err != nil {
		slog.Error("feed render failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(xml))
}
