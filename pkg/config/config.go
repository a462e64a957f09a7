package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Concierge ConciergeConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ConciergeConfig holds the tunables of the conversation engine
type ConciergeConfig struct {
	// TopK is the number of products returned per recommendation turn
	TopK int

	// CSATEscalationThreshold opens a stylist escalation for any rating
	// strictly below it (1-5 scale)
	CSATEscalationThreshold int

	// CapsuleHoldTTL is how long a capsule reservation stays active
	CapsuleHoldTTL time.Duration

	// SessionTTL expires sessions by last activity
	SessionTTL time.Duration

	// IdempotencyTTL is the retention window for processed action results
	IdempotencyTTL time.Duration

	// CatalogCacheTTL bounds staleness of cached catalog snapshots
	CatalogCacheTTL time.Duration

	// DispatchTimeout bounds each call to an external collaborator
	DispatchTimeout time.Duration

	// AnalyticsSalt is mixed into order-reference hashes before emission
	AnalyticsSalt string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "concierge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Concierge: ConciergeConfig{
			TopK:                    getEnvAsInt("CONCIERGE_TOP_K", 6),
			CSATEscalationThreshold: getEnvAsInt("CONCIERGE_CSAT_ESCALATION_THRESHOLD", 3),
			CapsuleHoldTTL:          getEnvAsDuration("CONCIERGE_CAPSULE_HOLD_TTL", 48*time.Hour),
			SessionTTL:              getEnvAsDuration("CONCIERGE_SESSION_TTL", 30*24*time.Hour),
			IdempotencyTTL:          getEnvAsDuration("CONCIERGE_IDEMPOTENCY_TTL", 24*time.Hour),
			CatalogCacheTTL:         getEnvAsDuration("CONCIERGE_CATALOG_CACHE_TTL", time.Minute),
			DispatchTimeout:         getEnvAsDuration("CONCIERGE_DISPATCH_TIMEOUT", 300*time.Millisecond),
			AnalyticsSalt:           getEnv("CONCIERGE_ANALYTICS_SALT", "maison-vera"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "concierge-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
