package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer        string // Required: expected issuer claim on bearer tokens
	JWTSecret     string // Required: HMAC secret shared with the identity service
	InternalToken string // Optional: shared token for internal endpoints (disabled when empty)

	DatabaseFile  string // Optional: path to SQLite database file (default: ./accounts.db)
	MasterKeyPath string // Optional: path to master encryption key file

	IdentityBaseURL string // Optional: external identity service base URL (noop provider when empty)
	IdentityToken   string // Optional: bearer token for the identity service

	VerificationCodeTTL time.Duration // Optional: verification code validity (default: 10m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment, loading a .env file
// first if one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Issuer:        getEnvOrDefault("ACCOUNTS_ISSUER", "bazaar-identity"),
		JWTSecret:     os.Getenv("ACCOUNTS_JWT_SECRET"),
		InternalToken: os.Getenv("ACCOUNTS_INTERNAL_TOKEN"),

		DatabaseFile:  getEnvOrDefault("ACCOUNTS_DATABASE_FILE", "accounts.db"),
		MasterKeyPath: os.Getenv("ACCOUNTS_MASTER_KEY_PATH"),

		IdentityBaseURL: os.Getenv("ACCOUNTS_IDENTITY_URL"),
		IdentityToken:   os.Getenv("ACCOUNTS_IDENTITY_TOKEN"),

		VerificationCodeTTL: getEnvDurationOrDefault("ACCOUNTS_VERIFICATION_CODE_TTL", 10*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
