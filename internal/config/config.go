// Package config centralizes environment-driven configuration for the
// core, modeled on mugisham37-DriveMaster's scheduler-service config and
// the teacher bot's .env loading via joho/godotenv.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the core components need at startup. No
// secrets live here; it is store paths, pool sizes, timeouts and the
// default study plan shape.
type Config struct {
	Store    StoreConfig
	Ingest   IngestConfig
	Session  SessionConfig
	Logging  LoggingConfig
	Deadline time.Duration // per Service API call, spec §5
}

// StoreConfig configures the C1 persistent store and its pool.
type StoreConfig struct {
	Driver              string // "sqlite3" or "postgres"
	DSN                 string
	PoolMax             int
	PoolAcquireTimeout  time.Duration
	SlowQueryThreshold  time.Duration
	SlowQueryWindowSize int
}

// IngestConfig configures the C4 pipeline defaults.
type IngestConfig struct {
	MinDelay      time.Duration
	MaxDelay      time.Duration
	RequestTimeout time.Duration
	MaxAttempts   int
	BackoffFactor float64
	BatchSize     int
}

// SessionConfig configures the C3 plan composition defaults.
type SessionConfig struct {
	DefaultDailyMinutes int
	ReviewShare         float64 // fraction of T reserved for review, default 0.20
	LanguageBalance     float64 // share of remainder given to the first configured language, default 0.5
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, loading a .env file
// first if one is present (ignored silently if missing, matching the
// teacher's main.go).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Store: StoreConfig{
			Driver:              getEnv("TUTOR_DB_DRIVER", "sqlite3"),
			DSN:                 getEnv("TUTOR_DB_DSN", "data/tutor.db"),
			PoolMax:             getEnvInt("TUTOR_DB_POOL_MAX", 8),
			PoolAcquireTimeout:  getEnvDuration("TUTOR_DB_POOL_WAIT", 2*time.Second),
			SlowQueryThreshold:  getEnvDuration("TUTOR_DB_SLOW_QUERY", 100*time.Millisecond),
			SlowQueryWindowSize: getEnvInt("TUTOR_DB_SLOW_QUERY_WINDOW", 50),
		},
		Ingest: IngestConfig{
			MinDelay:       getEnvDuration("TUTOR_INGEST_MIN_DELAY", 1*time.Second),
			MaxDelay:       getEnvDuration("TUTOR_INGEST_MAX_DELAY", 3*time.Second),
			RequestTimeout: getEnvDuration("TUTOR_INGEST_TIMEOUT", 10*time.Second),
			MaxAttempts:    getEnvInt("TUTOR_INGEST_MAX_ATTEMPTS", 3),
			BackoffFactor:  getEnvFloat("TUTOR_INGEST_BACKOFF", 2.0),
			BatchSize:      getEnvInt("TUTOR_INGEST_BATCH_SIZE", 100),
		},
		Session: SessionConfig{
			DefaultDailyMinutes: getEnvInt("TUTOR_DAILY_MINUTES", 30),
			ReviewShare:         getEnvFloat("TUTOR_REVIEW_SHARE", 0.20),
			LanguageBalance:     getEnvFloat("TUTOR_LANGUAGE_BALANCE", 0.50),
		},
		Logging: LoggingConfig{
			Level:  getEnv("TUTOR_LOG_LEVEL", "info"),
			Format: getEnv("TUTOR_LOG_FORMAT", "text"),
		},
		Deadline: getEnvDuration("TUTOR_REQUEST_DEADLINE", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
