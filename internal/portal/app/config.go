package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer       string        // Optional: issuer claim for access tokens (default: campuslink-portal)
	AccessTTL    time.Duration // Optional: access token lifetime (default: 1h)
	DatabaseFile string        // Optional: path to SQLite database file (default: ./portal.db)
	PepperFile   string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	RedisAddr    string        // Optional: Redis address; when set, change events fan out via Redis pub/sub
	RedisDB      int           // Optional: Redis database index (default: 0)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:       getEnvOrDefault("PORTAL_ISSUER", "campuslink-portal"),
		AccessTTL:    getEnvDurationOrDefault("PORTAL_ACCESS_TTL", time.Hour),
		DatabaseFile: getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),
		PepperFile:   getEnvOrDefault("PORTAL_PEPPER_FILE", "pepper"),
		RedisAddr:    os.Getenv("PORTAL_REDIS_ADDR"),
		RedisDB:      getEnvIntOrDefault("PORTAL_REDIS_DB", 0),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
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

	return defaultValue
}
