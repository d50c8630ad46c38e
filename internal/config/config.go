package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                  string
	DBPath                string
	LogLevel              string
	LogFormat             string
	StatsWorkerCount      int
	StatsQueueSize        int
	DefaultSessionMinutes int
	RequestTimeout        time.Duration
	RateLimitRPS          float64
	RateLimitBurst        int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                  envOr("ADDR", ":8080"),
		DBPath:                envOr("DB_PATH", "file:pylearn.db"),
		LogLevel:              envOr("LOG_LEVEL", "INFO"),
		LogFormat:             envOr("LOG_FORMAT", "text"),
		StatsWorkerCount:      envIntOr("STATS_WORKER_COUNT", 2),
		StatsQueueSize:        envIntOr("STATS_QUEUE_SIZE", 64),
		DefaultSessionMinutes: envIntOr("DEFAULT_SESSION_MINUTES", 20),
		RequestTimeout:        envDurationOr("REQUEST_TIMEOUT", 30*time.Second),
		RateLimitRPS:          envFloatOr("RATE_LIMIT_RPS", 10),
		RateLimitBurst:        envIntOr("RATE_LIMIT_BURST", 20),
	}
}

var validLogLevels = map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if !validLogLevels[strings.ToUpper(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json (got %q)", c.LogFormat))
	}
	if c.StatsWorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("STATS_WORKER_COUNT must be positive (got %d)", c.StatsWorkerCount))
	}
	if c.StatsQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("STATS_QUEUE_SIZE must be positive (got %d)", c.StatsQueueSize))
	}
	if c.DefaultSessionMinutes < 2 || c.DefaultSessionMinutes > 240 {
		errs = append(errs, fmt.Errorf("DEFAULT_SESSION_MINUTES must be between 2 and 240 (got %d)", c.DefaultSessionMinutes))
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT cannot be negative (got %s)", c.RequestTimeout))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS cannot be negative (got %g)", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be positive when rate limiting is enabled (got %d)", c.RateLimitBurst))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
