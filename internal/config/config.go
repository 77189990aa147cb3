package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DatabaseURL selects the Postgres backend; empty means the in-memory
	// repository (development mode).
	DatabaseURL string

	// AggregationMode is "local" (store computes aggregates) or "trigger"
	// (database trigger recomputes them).
	AggregationMode string

	// SeedDemoData loads the demo fixtures at startup. Only honored with the
	// in-memory repository.
	SeedDemoData bool

	SessionTTL time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Report feed (Kafka) configuration.
	KafkaBrokers    []string
	ReportFeedTopic string
	FeedEnabled     bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parseDuration("SESSION_TTL", "12h")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	brokers := parseBrokers(envOrDefault("KAFKA_BROKERS", ""))
	feedEnabled := len(brokers) > 0
	if v := os.Getenv("REPORT_FEED_ENABLED"); v != "" {
		feedEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AggregationMode: envOrDefault("AGGREGATION_MODE", "local"),
		SeedDemoData:    os.Getenv("SEED_DEMO_DATA") == "true",

		SessionTTL: sessionTTL,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseIntOrDefault("MAPBOX_CACHE_SIZE", 1000),

		KafkaBrokers:    brokers,
		ReportFeedTopic: envOrDefault("REPORT_FEED_TOPIC", "noise-reports"),
		FeedEnabled:     feedEnabled,
	}

	if cfg.AggregationMode != "local" && cfg.AggregationMode != "trigger" {
		return nil, fmt.Errorf("invalid AGGREGATION_MODE %q: want local or trigger", cfg.AggregationMode)
	}
	if cfg.AggregationMode == "trigger" && cfg.DatabaseURL == "" {
		return nil, errors.New("AGGREGATION_MODE=trigger requires DATABASE_URL")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.FeedEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("REPORT_FEED_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.FeedEnabled && cfg.ReportFeedTopic == "" {
		return nil, errors.New("REPORT_FEED_TOPIC is required when the feed is enabled")
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
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseIntOrDefault(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
