package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Required: issuer claim for session tokens

	DatabaseFile      string        // Optional: path to SQLite database file (default: ./caremypark.db)
	PepperFile        string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	UploadDir         string        // Optional: directory for report photo storage (default: ./uploads)
	SessionKeyFile    string        // Optional: PKCS8 PEM Ed25519 key; empty means ephemeral keys
	SessionTTL        time.Duration // Optional: session token lifetime (default: 24h)
	ChallengeTTL      time.Duration // Optional: 2FA challenge lifetime (default: 5m)
	AnonymousTracking bool          // Optional: allow anonymous submission + public tracking (default: true)
	PublicBaseURL     string        // Optional: site root encoded into signage QR codes (default: https://caremypark.com)

	BootstrapEmail    string // Optional: initial authority account email
	BootstrapPassword string // Optional: initial authority account password

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:            getEnvOrDefault("PARK_ISSUER", "caremypark"),
		DatabaseFile:      getEnvOrDefault("PARK_DATABASE_FILE", "caremypark.db"),
		PepperFile:        getEnvOrDefault("PARK_PEPPER_FILE", "pepper"),
		UploadDir:         getEnvOrDefault("PARK_UPLOAD_DIR", "uploads"),
		SessionKeyFile:    os.Getenv("PARK_SESSION_KEY_FILE"),
		SessionTTL:        getEnvDurationOrDefault("PARK_SESSION_TTL", 24*time.Hour),
		ChallengeTTL:      getEnvDurationOrDefault("PARK_CHALLENGE_TTL", 5*time.Minute),
		AnonymousTracking: getEnvBoolOrDefault("PARK_ANONYMOUS_TRACKING", true),
		PublicBaseURL:     getEnvOrDefault("PARK_PUBLIC_BASE_URL", "https://caremypark.com"),

		BootstrapEmail:    os.Getenv("PARK_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("PARK_BOOTSTRAP_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
