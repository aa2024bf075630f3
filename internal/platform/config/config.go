// Package config assembles process configuration from the environment so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Addr     string
	LogLevel string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig

	// SnapshotRefreshInterval is how often the access snapshot is reloaded
	// from its source.
	SnapshotRefreshInterval time.Duration
}

// RedisConfig configures the revocation-list backend. An empty URL disables
// Redis and falls back to the in-memory list.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the trigger-event sink. Empty brokers disable Kafka
// and fall back to the in-memory publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig configures access-token validation.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envOr("FACTGATE_ADDR", ":8080"),
		LogLevel:    envOr("FACTGATE_LOG_LEVEL", "info"),
		PostgresDSN: os.Getenv("FACTGATE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("FACTGATE_REDIS_URL"),
			PoolSize:     envIntOr("FACTGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("FACTGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("FACTGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("FACTGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("FACTGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("FACTGATE_KAFKA_BROKERS")),
			Topic:   envOr("FACTGATE_KAFKA_TOPIC", "factgate.trigger-events"),
		},
		JWT: JWTConfig{
			// Development default; override in production.
			SigningKey: envOr("FACTGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envOr("FACTGATE_JWT_ISSUER", "factgate"),
			Audience:   envOr("FACTGATE_JWT_AUDIENCE", "factgate-api"),
		},
		SnapshotRefreshInterval: envDurationOr("FACTGATE_SNAPSHOT_REFRESH_INTERVAL", time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
