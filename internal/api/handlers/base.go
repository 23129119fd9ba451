package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/isdelr/ecofinds/internal/auth"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/isdelr/ecofinds/internal/views"
	"github.com/rs/zerolog/log"
)

const flashCookie = "flash"

// Base carries what every HTML handler needs: the page renderer and the
// session manager.
type Base struct {
	views    *views.Renderer
	sessions *auth.SessionManager
}

// NewBase creates a Base.
func NewBase(renderer *views.Renderer, sessions *auth.SessionManager) Base {
	return Base{views: renderer, sessions: sessions}
}

// render writes a full page. The pending flash message, if any, is consumed.
func (b *Base) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	page := views.Page{
		Title:      title,
		Flash:      popFlash(w, r),
		Categories: models.Categories,
		Data:       data,
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		page.SignedIn = true
		page.Username = id.Username
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := b.views.Render(w, name, page); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
	}
}

func (b *Base) notFound(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusNotFound, "not_found", "Not found", nil)
}

// NotFound renders the 404 page for unmatched routes.
func (b *Base) NotFound(w http.ResponseWriter, r *http.Request) {
	b.notFound(w, r)
}

func (b *Base) serverError(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusInternalServerError, "error", "Error", nil)
}

// fail maps a service error onto a response. Expected failures become a
// flash message and a redirect to back.
func (b *Base) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNotFound):
		b.notFound(w, r)
	case errors.Is(err, services.ErrForbidden):
		flashRedirect(w, r, "Not authorized.", back)
	case errors.As(err, &verr):
		flashRedirect(w, r, validationNotice(verr), back)
	case errors.Is(err, services.ErrEmptyCart):
		flashRedirect(w, r, "Cart is empty.", back)
	case errors.Is(err, services.ErrInvalidCredentials):
		flashRedirect(w, r, "Invalid credentials.", back)
	case errors.Is(err, services.ErrDuplicate):
		flashRedirect(w, r, "Already exists.", back)
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		b.serverError(w, r)
	}
}

// actor returns the id of the signed-in user. Routes using it sit behind
// auth.RequireUser.
func actor(r *http.Request) string {
	id, _ := auth.IdentityFrom(r.Context())
	return id.UserID
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func flashRedirect(w http.ResponseWriter, r *http.Request, msg, to string) {
	setFlash(w, msg)
	redirect(w, r, to)
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// validationNotice turns field errors into one readable sentence per field.
func validationNotice(verr *services.ValidationError) string {
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		label := strings.ReplaceAll(f, "_", " ")
		label = strings.ToUpper(label[:1]) + label[1:]
		parts = append(parts, label+" "+verr.Fields[f]+".")
	}
	return strings.Join(parts, " ")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
