package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/rs/zerolog/log"
)

// BrowseHandler serves the public catalogue, as HTML and as JSON.
type BrowseHandler struct {
	Base
	browse   services.BrowseServiceProvider
	listings services.ListingServiceProvider
}

// NewBrowseHandler creates a new BrowseHandler.
func NewBrowseHandler(base Base, browse services.BrowseServiceProvider, listings services.ListingServiceProvider) *BrowseHandler {
	return &BrowseHandler{Base: base, browse: browse, listings: listings}
}

type browseData struct {
	Items    []models.Product
	Query    string
	Category string
}

func listingQuery(r *http.Request) services.ListingQuery {
	return services.ListingQuery{
		Text:     r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
}

// Browse renders the home page with search and category filters.
func (h *BrowseHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := listingQuery(r)
	items, err := h.browse.Search(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "browse", "Browse", browseData{Items: items, Query: q.Text, Category: q.Category})
}

// List returns the filtered catalogue as JSON.
func (h *BrowseHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.browse.Search(r.Context(), listingQuery(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to search listings")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve listings"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get returns one listing as JSON.
func (h *BrowseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.listings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found"})
			return
		}
		log.Error().Err(err).Str("listing_id", id).Msg("Failed to get listing")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve listing"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Categories returns the fixed category list.
func (h *BrowseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories)
}
