package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// DatabaseURL empty means the in-memory grid store (demo mode).
	DatabaseURL string
	BunDebug    bool

	// Upstream climate provider.
	ProviderBaseURL  string
	ProviderModels   string
	ProviderTimeout  time.Duration
	FetchDelay       time.Duration
	BaselineCacheTTL time.Duration

	// Optional Kafka publishing of imported grid points.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchDelay, err := parseDuration("FETCH_DELAY", "150ms")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("BASELINE_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		AllowedOrigins:  splitList(envOrDefault("ALLOWED_ORIGINS", "*")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		BunDebug:    os.Getenv("BUN_DEBUG") == "true",

		ProviderBaseURL:  envOrDefault("PROVIDER_BASE_URL", "https://climate-api.open-meteo.com/v1/climate"),
		ProviderModels:   envOrDefault("PROVIDER_MODELS", "EC_Earth3P_HR"),
		ProviderTimeout:  providerTimeout,
		FetchDelay:       fetchDelay,
		BaselineCacheTTL: cacheTTL,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "climate-grid-points"),
	}

	if cfg.ProviderBaseURL == "" {
		return nil, errors.New("PROVIDER_BASE_URL is required")
	}
	if cfg.FetchDelay < 0 {
		return nil, errors.New("FETCH_DELAY must not be negative")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
