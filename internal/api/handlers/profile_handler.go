package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/rs/zerolog/log"
)

// recentEventLimit is how many activity entries the dashboard shows.
const recentEventLimit = 10

// ProfileHandler serves the user dashboard.
type ProfileHandler struct {
	Base
	users  services.UserServiceProvider
	events services.EventServiceProvider
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(base Base, users services.UserServiceProvider, events services.EventServiceProvider) *ProfileHandler {
	return &ProfileHandler{Base: base, users: users, events: events}
}

type dashboardData struct {
	User   models.User
	Events []models.Event
}

// Dashboard shows the profile form and recent activity.
func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := actor(r)
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// Signed session for a user that no longer exists.
			h.sessions.Clear(w)
			redirect(w, r, "/login")
			return
		}
		h.fail(w, r, err, "/")
		return
	}

	events, err := h.events.GetRecentEvents(r.Context(), userID, recentEventLimit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve events")
		events = nil
	}

	h.render(w, r, http.StatusOK, "dashboard", "Dashboard", dashboardData{User: user, Events: events})
}

// Update handles updating a user's profile information.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := actor(r)
	user, err := h.users.UpdateProfile(r.Context(), userID, services.ProfileInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			flashRedirect(w, r, "Email already in use.", "/dashboard")
			return
		}
		h.fail(w, r, err, "/dashboard")
		return
	}

	// The session carries the display name, so re-issue it.
	if err := h.sessions.Issue(w, user); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to refresh session")
	}
	flashRedirect(w, r, "Profile updated.", "/dashboard")
}

// ChangePassword handles changing a user's password.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	err := h.users.ChangePassword(r.Context(), actor(r), r.PostFormValue("current_password"), r.PostFormValue("new_password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			flashRedirect(w, r, "Current password is incorrect.", "/dashboard")
			return
		}
		h.fail(w, r, err, "/dashboard")
		return
	}
	flashRedirect(w, r, "Password changed.", "/dashboard")
}
