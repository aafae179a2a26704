package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/joho/godotenv"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort         string
	SessionSecret      string
	SessionTTL         time.Duration
	ConnectionTTL      time.Duration
	ProfilesFile       string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	HTTPTimeout        time.Duration
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	// Attempt to load .env file if in development environment (skip in production)
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", ":8080")
	secret := getEnv("SESSION_SECRET", "")
	profilesFile := getEnv("PROFILES_FILE", "config/profiles/profiles.yaml")
	origins := getEnv("CORS_ALLOWED_ORIGINS", "*")

	// --- Validation and Parsing ---
	if secret == "" {
		return nil, errors.New("SESSION_SECRET environment variable must be set")
	}
	if secret == "!!replace_this_with_a_real_secret_key!!" {
		customLog.Warnln("WARNING: SESSION_SECRET is set to the default placeholder!")
	}

	cfg := &Config{
		ServerPort:         port,
		SessionSecret:      secret,
		SessionTTL:         getMinutes("SESSION_TTL_MINUTES", 8*60),
		ConnectionTTL:      getMinutes("CONNECTION_TTL_MINUTES", 60),
		ProfilesFile:       profilesFile,
		RateLimitPerMinute: getPositiveInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: splitList(origins),
		HTTPTimeout:        time.Second * time.Duration(getPositiveInt("HTTP_TIMEOUT_SECONDS", 30)),
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, Session TTL: %v, Connection TTL: %v",
		cfg.ServerPort, cfg.SessionTTL, cfg.ConnectionTTL)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
// An empty fallback marks the variable as required by the caller.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getPositiveInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		customLog.Warnf("Invalid %s '%s'. Using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return n
}

func getMinutes(key string, fallback int) time.Duration {
	return time.Minute * time.Duration(getPositiveInt(key, fallback))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
