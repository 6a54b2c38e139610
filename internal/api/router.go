package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/export"
	"github.com/starford/raido/internal/store"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(db *store.DB, authEnabled bool, token string, sseHandler http.Handler, feed export.FeedOptions) chi.Router {
	h := NewHandler(db, feed)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Links.
	r.Get("/links", h.ListLinks)
	r.Get("/links/recent", h.RecentLinks)
	r.Get("/links/{id}", h.GetLink)

	// Search.
	r.Get("/search", h.Search)

	// Catalogs.
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{name}/links", h.LinksByTag)
	r.Get("/domains", h.ListDomains)
	r.Get("/dates", h.ListDates)

	// Stats and export.
	r.Get("/stats", h.Stats)
	r.Get("/feed.xml", h.Feed)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
