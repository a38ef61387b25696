// Package config provides centralized default values for the bookstore backend
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// getEnvInt reads environment variable with fallback to default
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvString reads environment variable with string fallback
func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvDuration reads environment variable as duration with fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		// Try as integer seconds
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// Server Configuration
var (
	Port = getEnvString("PORT", "8080")
)

// Database Configuration
var (
	SQLitePath    = getEnvString("SQLITE_PATH", "./data/bookstore.db")
	TursoDatabase = getEnvString("TURSO_DATABASE_URL", "")
	TursoToken    = getEnvString("TURSO_AUTH_TOKEN", "")

	DBMaxOpenConns           = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns           = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
)

// Personalize Service Configuration
var (
	PersonalizeProjectID   = getEnvString("PERSONALIZE_PROJECT_ID", "")
	PersonalizeEnvironment = getEnvString("PERSONALIZE_ENVIRONMENT", "production")
	PersonalizeToken       = getEnvString("PERSONALIZE_TOKEN", "")
	PersonalizeBaseURL     = getEnvString("PERSONALIZE_BASE_URL", "https://personalize-edge.contentstack.com")
	PersonalizeTimeout     = getEnvDuration("PERSONALIZE_TIMEOUT", 10*time.Second)
)

// CMS Catalog Configuration
var (
	CatalogBaseURL = getEnvString("CATALOG_BASE_URL", "https://cdn.contentstack.io/v3")
	CatalogAPIKey  = getEnvString("CATALOG_API_KEY", "")
	CatalogToken   = getEnvString("CATALOG_DELIVERY_TOKEN", "")
	CatalogTimeout = getEnvDuration("CATALOG_TIMEOUT", 10*time.Second)
)

// Email Configuration
var (
	AutomationEndpoint = getEnvString("AUTOMATION_ENDPOINT", "")
	EmailTimeout       = getEnvDuration("EMAIL_TIMEOUT", 10*time.Second)
)

// Session Configuration
var (
	JWTSecret    = getEnvString("JWT_SECRET", "")
	SessionTTL   = time.Duration(getEnvInt("SESSION_TTL_HOURS", 2)) * time.Hour
	SessionSweep = time.Duration(getEnvInt("SESSION_SWEEP_MINUTES", 30)) * time.Minute
	MaxSessions  = getEnvInt("MAX_SESSIONS", 5000)
)

// Event Deduplication Configuration
var (
	DedupWindow        = getEnvDuration("DEDUP_WINDOW", 10*time.Second)
	DedupEntryTTL      = getEnvDuration("DEDUP_ENTRY_TTL", 5*time.Minute)
	DedupSweepInterval = getEnvDuration("DEDUP_SWEEP_INTERVAL", 1*time.Minute)
)

// Media Configuration
var (
	MediaPath = getEnvString("MEDIA_PATH", "./media")
)

func init() {
	if JWTSecret == "" {
		log.Printf("WARNING: JWT_SECRET not set -- profile tokens disabled")
	}
}
