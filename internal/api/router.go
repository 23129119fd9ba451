package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ecofinds/internal/api/handlers"
	"github.com/isdelr/ecofinds/internal/auth"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/isdelr/ecofinds/internal/views"
	"github.com/isdelr/ecofinds/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Views       *views.Renderer
	Sessions    *auth.SessionManager
	Hub         *websocket.Hub
	Health      handlers.HealthChecker
	Users       services.UserServiceProvider
	Listings    services.ListingServiceProvider
	Browse      services.BrowseServiceProvider
	Cart        services.CartServiceProvider
	Checkout    services.CheckoutServiceProvider
	Events      services.EventServiceProvider
	CORSOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(d.Sessions.Middleware)

	base := handlers.NewBase(d.Views, d.Sessions)
	authHandler := handlers.NewAuthHandler(base, d.Users)
	profileHandler := handlers.NewProfileHandler(base, d.Users, d.Events)
	listingHandler := handlers.NewListingHandler(base, d.Listings)
	browseHandler := handlers.NewBrowseHandler(base, d.Browse, d.Listings)
	cartHandler := handlers.NewCartHandler(base, d.Cart, d.Checkout)
	healthHandler := handlers.NewHealthHandler(d.Health)

	r.NotFound(base.NotFound)
	r.Handle("/static/*", views.Static())
	r.Get("/healthz", healthHandler.Serve)
	if d.Hub != nil {
		r.Get("/ws/feed", handlers.NewFeedHandler(d.Hub).Serve)
	}

	// Read-only JSON catalogue for other frontends.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/listings", browseHandler.List)
		r.Get("/listings/{id}", browseHandler.Get)
		r.Get("/categories", browseHandler.Categories)
	})

	// Public pages
	r.Get("/", browseHandler.Browse)
	r.Get("/register", authHandler.RegisterForm)
	r.Post("/register", authHandler.Register)
	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	// Signed-in pages
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Get("/dashboard", profileHandler.Dashboard)
		r.Post("/dashboard", profileHandler.Update)
		r.Post("/dashboard/password", profileHandler.ChangePassword)

		r.Get("/listings/new", listingHandler.NewForm)
		r.Post("/listings/new", listingHandler.Create)
		r.Get("/listings/mine", listingHandler.Mine)
		r.Get("/listings/mine/export", listingHandler.Export)
		r.Get("/listings/{id}/edit", listingHandler.EditForm)
		r.Post("/listings/{id}/edit", listingHandler.Update)
		r.Post("/listings/{id}/delete", listingHandler.Delete)

		r.Get("/cart", cartHandler.View)
		r.Post("/cart/add/{id}", cartHandler.Add)
		r.Post("/cart/remove/{id}", cartHandler.Remove)
		r.Post("/checkout", cartHandler.Checkout)
		r.Get("/purchases", cartHandler.Purchases)
	})

	r.Get("/listings/{id}", listingHandler.Detail)

	return r
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("HTTP request")
		}()
		next.ServeHTTP(ww, r)
	})
}
