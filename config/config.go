package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr    string
	CORSOrigins []string
	RateLimit   int // Requests per minute per client IP

	// Session configuration
	JWTSecret  string
	SessionTTL time.Duration

	// Contract deployment artifacts
	ContractDir  string
	ContractName string

	// Optional integrations
	NATSURL             string
	DiscordWebhookID    string
	DiscordWebhookToken string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables, seeding them from .env when present
func load() (*Config, error) {
	// A missing .env file is fine, real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:    ":8080",
		CORSOrigins: []string{"http://localhost:3000"},
		RateLimit:   120,

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: 7 * 24 * time.Hour,

		ContractDir:  "./contract_data",
		ContractName: "TopG",

		NATSURL:             os.Getenv("NATS_URL"),
		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),

		LogLevel:    "info",
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		config.HTTPAddr = addr
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		config.CORSOrigins = splitList(origins)
	}
	if limit := os.Getenv("RATE_LIMIT"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT value %q", limit)
		}
		config.RateLimit = parsed
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL value %q: %w", ttl, err)
		}
		config.SessionTTL = parsed
	}
	if dir := os.Getenv("CONTRACT_DIR"); dir != "" {
		config.ContractDir = dir
	}
	if name := os.Getenv("CONTRACT_NAME"); name != "" {
		config.ContractName = name
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

// DiscordEnabled reports whether game announcements should be posted to Discord
func (c *Config) DiscordEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
