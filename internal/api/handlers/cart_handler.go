package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/rs/zerolog/log"
)

// CartHandler handles the cart, checkout and purchase history.
type CartHandler struct {
	Base
	cart     services.CartServiceProvider
	checkout services.CheckoutServiceProvider
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(base Base, cart services.CartServiceProvider, checkout services.CheckoutServiceProvider) *CartHandler {
	return &CartHandler{Base: base, cart: cart, checkout: checkout}
}

type purchasesData struct {
	Items []models.Purchase
}

// View shows the cart at current prices.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.View(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "cart", "Cart", cart)
}

// Add puts one unit of a listing in the cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	if _, err := h.cart.Add(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "/cart")
		return
	}
	flashRedirect(w, r, "Added to cart.", "/cart")
}

// Remove deletes a cart row.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Remove(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		h.fail(w, r, err, "/cart")
		return
	}
	flashRedirect(w, r, "Removed from cart.", "/cart")
}

// Checkout turns the cart into purchases.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.checkout.Checkout(r.Context(), actor(r))
	if errors.Is(err, services.ErrNotFound) {
		flashRedirect(w, r, "An item in your cart is no longer available.", "/cart")
		return
	}
	if err != nil {
		h.fail(w, r, err, "/cart")
		return
	}
	log.Info().Str("user_id", actor(r)).Int("purchases", len(purchases)).Msg("Checkout complete")
	flashRedirect(w, r, "Purchase complete!", "/purchases")
}

// Purchases lists previous purchases.
func (h *CartHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	items, err := h.checkout.History(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "purchases", "Purchases", purchasesData{Items: items})
}
