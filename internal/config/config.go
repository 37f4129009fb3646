package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Service configuration constants
const (
	ServiceName    = "mint-stock-flow"
	ServiceVersion = "0.1.0"
)

// Kafka configuration constants
const (
	StockEventsTopic   = "StockEvents"
	GoodsReceivedTopic = "GoodsReceived"
	GroupID            = "mint-stock-flow-group"
	BatchTimeout       = 10 * time.Millisecond
	BatchSize          = 100
)

// OpenTelemetry configuration constants
const (
	LogsPath       = "/otlp/v1/logs"
	TracesPath     = "/otlp/v1/traces"
	MetricsPath    = "/otlp/v1/metrics"
	ExportTimeout  = 30 * time.Second
	MaxQueueSize   = 2048
	MetricInterval = 15 * time.Second
)

// Database drivers understood by the storage layer
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds environment-specific configuration. Empty infrastructure settings turn
// the matching collaborator off.
type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	DatabaseDriver string
	RedisURL       string
	KafkaBroker    string
	OtelEndpoint   string
	OtelAuthHeader string
	StrictIssue    bool
	SeedCatalog    bool
	SaleLockTTL    time.Duration
}

// LoadConfig reads the environment, after loading a .env file when one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("PORT must be numeric, got %q", port)
	}

	lockTTL, err := time.ParseDuration(getEnv("SALE_LOCK_TTL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("SALE_LOCK_TTL: %w", err)
	}
	if lockTTL <= 0 {
		return nil, fmt.Errorf("SALE_LOCK_TTL must be positive")
	}

	config := &Config{
		HTTPAddr:       ":" + port,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
		StrictIssue:    envFlag("STRICT_ISSUE", false),
		SeedCatalog:    envFlag("SEED_CATALOG", true),
		SaleLockTTL:    lockTTL,
	}

	if config.DatabaseDriver != DriverPostgres && config.DatabaseDriver != DriverMySQL {
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMySQL, config.DatabaseDriver)
	}
	if config.OtelEndpoint != "" && config.OtelAuthHeader == "" {
		return nil, fmt.Errorf("OTEL_AUTH_HEADER environment variable is required when OTEL_ENDPOINT is set")
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// envFlag accepts 1/true/yes/y and 0/false/no/n; anything else yields the default.
func envFlag(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return defaultValue
	}
}
