package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	Env          string
	LogLevel     string

	SessionSecret string
	SessionTTL    time.Duration

	CORSOrigins []string

	EventRetention time.Duration
	EventPruneCron string // empty disables the pruning job

	RabbitMQURI   string // empty disables purchase messages
	PurchaseQueue string

	PostmarkToken string // empty disables receipt emails
	EmailSender   string
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from a .env file (if any) and environment variables,
// falling back to defaults.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	retention, err := time.ParseDuration(getEnv("EVENT_RETENTION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION: %w", err)
	}

	cfg := &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./ecofinds.db"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     sessionTTL,
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		EventRetention: retention,
		EventPruneCron: getEnv("EVENT_PRUNE_CRON", "0 3 * * *"),
		RabbitMQURI:    getEnv("RABBITMQ_URI", ""),
		PurchaseQueue:  getEnv("PURCHASE_QUEUE", "purchases"),
		PostmarkToken:  getEnv("POSTMARK_API_TOKEN", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@ecofinds.local"),
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production")
		}
		cfg.SessionSecret = "dev-secret-change-this"
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
