package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/ecofinds/internal/api"
	"github.com/isdelr/ecofinds/internal/auth"
	"github.com/isdelr/ecofinds/internal/config"
	"github.com/isdelr/ecofinds/internal/database"
	"github.com/isdelr/ecofinds/internal/logger"
	"github.com/isdelr/ecofinds/internal/monitoring"
	"github.com/isdelr/ecofinds/internal/notify"
	"github.com/isdelr/ecofinds/internal/services"
	"github.com/isdelr/ecofinds/internal/views"
	"github.com/isdelr/ecofinds/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	renderer, err := views.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up purchase notifications
	var notifiers notify.Multi
	if cfg.RabbitMQURI != "" {
		queue, err := notify.DialQueue(cfg.RabbitMQURI, cfg.PurchaseQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up purchase queue")
		}
		defer queue.Close()
		notifiers = append(notifiers, queue)
	}
	if cfg.PostmarkToken != "" {
		notifiers = append(notifiers, notify.NewMailer(cfg.PostmarkToken, cfg.EmailSender))
	}
	var notifier services.PurchaseNotifier = notify.Nop{}
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, eventService)
	listingService := services.NewListingService(db, eventService)
	browseService := services.NewBrowseService(db)
	cartService := services.NewCartService(db)
	checkoutService := services.NewCheckoutService(db, userService, eventService, notifier)

	// Set up and run the background scheduler
	var scheduler *monitoring.Scheduler
	if cfg.EventPruneCron != "" {
		scheduler, err = monitoring.NewScheduler(eventService, cfg.EventPruneCron, cfg.EventRetention)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up scheduler")
		}
		scheduler.Run()
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Views:       renderer,
		Sessions:    auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction()),
		Hub:         hub,
		Health:      monitoring.NewChecker(db),
		Users:       userService,
		Listings:    listingService,
		Browse:      browseService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Events:      eventService,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
