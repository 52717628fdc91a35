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
	// Kafka alert ingestion.
	KafkaBrokers       []string
	KafkaAlertsTopic   string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Notification channels. An empty value disables the channel.
	BroadcastTopic string
	SMSGatewayURL  string
	SMSTimeout     time.Duration

	// Storage.
	DatabaseURL string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Directions provider. An empty API key means fallback-only routing.
	DirectionsAPIKey  string
	DirectionsEnabled bool
	DirectionsTimeout time.Duration
	MaxSteps          int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}
	directionsTimeout, err := parseDuration("DIRECTIONS_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}
	smsTimeout, err := parseDuration("SMS_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseIntInRange("BATCH_SIZE", 50, 1, 500)
	if err != nil {
		return nil, err
	}
	maxSteps, err := parseIntInRange("MAX_STEPS", 5, 1, 50)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("GMP_API_KEY")
	directionsEnabled := apiKey != ""
	if v := os.Getenv("DIRECTIONS_ENABLED"); v != "" {
		directionsEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertsTopic:   envOrDefault("KAFKA_ALERTS_TOPIC", "validated-alerts"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "evac-routing"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		BroadcastTopic: os.Getenv("BROADCAST_TOPIC"),
		SMSGatewayURL:  os.Getenv("SMS_GATEWAY_URL"),
		SMSTimeout:     smsTimeout,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DirectionsAPIKey:  apiKey,
		DirectionsEnabled: directionsEnabled,
		DirectionsTimeout: directionsTimeout,
		MaxSteps:          maxSteps,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaAlertsTopic == "" {
		return nil, errors.New("KAFKA_ALERTS_TOPIC is required")
	}
	if cfg.DirectionsEnabled && cfg.DirectionsAPIKey == "" {
		return nil, errors.New("DIRECTIONS_ENABLED is true but GMP_API_KEY is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, fallback, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, min, max)
	}
	return n, nil
}
