package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/ecofinds/internal/auth"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	Base
	users services.UserServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(base Base, users services.UserServiceProvider) *AuthHandler {
	return &AuthHandler{Base: base, users: users}
}

// RegisterForm shows the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", nil)
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	input := services.RegisterInput{
		Email:    r.PostFormValue("email"),
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			flashRedirect(w, r, "Email already registered.", "/register")
			return
		}
		h.fail(w, r, err, "/register")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	flashRedirect(w, r, "Registered! Please log in.", "/login")
}

type loginData struct {
	Next string
}

// LoginForm shows the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"), "")
	h.render(w, r, http.StatusOK, "login", "Log in", loginData{Next: next})
}

// Login handles user authentication and issues the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"), "")

	user, err := h.users.Authenticate(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		back := "/login"
		if next != "" {
			back += "?next=" + url.QueryEscape(next)
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("request_id", middleware.GetReqID(r.Context())).Msg("Failed authentication attempt")
		}
		h.fail(w, r, err, back)
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session")
		h.serverError(w, r)
		return
	}
	flashRedirect(w, r, "Welcome back!", auth.SafeNext(next, "/"))
}

// Logout clears the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	flashRedirect(w, r, "Logged out.", "/")
}
