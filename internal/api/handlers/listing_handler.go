package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ecofinds/internal/export"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/rs/zerolog/log"
)

// ListingHandler handles the owner-side listing pages and the public detail page.
type ListingHandler struct {
	Base
	listings services.ListingServiceProvider
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(base Base, listings services.ListingServiceProvider) *ListingHandler {
	return &ListingHandler{Base: base, listings: listings}
}

type listingFormData struct {
	Action  string
	Editing bool
	Input   services.ListingInput
}

type listingsData struct {
	Items []models.Product
}

type listingDetailData struct {
	Product models.Product
	Owned   bool
}

func listingInput(r *http.Request) services.ListingInput {
	return services.ListingInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Category:    r.PostFormValue("category"),
		Price:       r.PostFormValue("price"),
		ImageURL:    r.PostFormValue("image_url"),
	}
}

// NewForm shows an empty listing form.
func (h *ListingHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "listing_form", "New listing", listingFormData{Action: "/listings/new"})
}

// Create handles a new listing.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := h.listings.Create(r.Context(), actor(r), listingInput(r))
	if err != nil {
		h.fail(w, r, err, "/listings/new")
		return
	}
	log.Info().Str("listing_id", p.ID).Str("user_id", p.UserID).Msg("Listing created")
	flashRedirect(w, r, "Listing created.", "/listings/mine")
}

// Mine lists the signed-in user's listings.
func (h *ListingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.ListByOwner(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "my_listings", "My listings", listingsData{Items: items})
}

// Export downloads the signed-in user's listings as a spreadsheet.
func (h *ListingHandler) Export(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.ListByOwner(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, err, "/listings/mine")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=listings.xlsx")
	if err := export.WriteListings(w, items); err != nil {
		log.Error().Err(err).Str("user_id", actor(r)).Msg("Failed to export listings")
	}
}

// EditForm shows the form for a listing the user owns.
func (h *ListingHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.listings.GetOwned(r.Context(), id, actor(r))
	if err != nil {
		h.fail(w, r, err, "/listings/mine")
		return
	}

	h.render(w, r, http.StatusOK, "listing_form", "Edit listing", listingFormData{
		Action:  fmt.Sprintf("/listings/%s/edit", p.ID),
		Editing: true,
		Input: services.ListingInput{
			Title:       p.Title,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price.StringFixed(2),
			ImageURL:    p.ImageURL,
		},
	})
}

// Update saves an edited listing.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.listings.Update(r.Context(), id, actor(r), listingInput(r))
	if err != nil {
		back := "/listings/mine"
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			back = fmt.Sprintf("/listings/%s/edit", id)
		}
		h.fail(w, r, err, back)
		return
	}
	flashRedirect(w, r, "Listing updated.", "/listings/mine")
}

// Delete removes a listing the user owns.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.listings.Delete(r.Context(), id, actor(r)); err != nil {
		h.fail(w, r, err, "/listings/mine")
		return
	}
	log.Info().Str("listing_id", id).Str("user_id", actor(r)).Msg("Listing deleted")
	flashRedirect(w, r, "Listing deleted.", "/listings/mine")
}

// Detail shows one listing to anyone.
func (h *ListingHandler) Detail(w http.ResponseWriter, r *http.Request) {
	p, err := h.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "listing_detail", p.Title, listingDetailData{Product: p, Owned: p.UserID == actor(r)})
}
