package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	DBAutoMigrate      bool

	MerchantHeader string
	RuleCacheTTL   time.Duration

	CartLockTTL           time.Duration
	CartLockRetryBackoff  time.Duration
	CartOptimisticLocking bool
	CartMinCartBasis      string

	RateLimitPerMinute int
	WorkerConcurrency  int

	ObsLogFormat            string
	ObsLogLevel             string
	ObsEnableTracing        bool
	ObsOTLPEndpoint         string
	ObsTracingSamplingRatio float64
	ObsMetricsNamespace     string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		DBAutoMigrate:      parseBool(k.String("DB_AUTO_MIGRATE"), false),

		MerchantHeader: valueOrDefault(k.String("MERCHANT_HEADER"), "X-Merchant-ID"),
		RuleCacheTTL:   parseDuration(k.String("RULE_CACHE_TTL"), "30s"),

		CartLockTTL:           parseDuration(k.String("CART_LOCK_TTL"), "10s"),
		CartLockRetryBackoff:  parseDuration(k.String("CART_LOCK_RETRY_BACKOFF"), "50ms"),
		CartOptimisticLocking: parseBool(k.String("CART_OPTIMISTIC_LOCKING"), true),
		CartMinCartBasis:      strings.ToLower(valueOrDefault(k.String("CART_MIN_CART_BASIS"), "none")),

		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 600),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 5),

		ObsLogFormat:            valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		ObsLogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		ObsEnableTracing:        parseBool(k.String("OBS_ENABLE_TRACING"), false),
		ObsOTLPEndpoint:         strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		ObsTracingSamplingRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		ObsMetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "b2b_pricing"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	switch cfg.CartMinCartBasis {
	case "none", "list_subtotal":
	default:
		return nil, fmt.Errorf("CART_MIN_CART_BASIS %q not supported", cfg.CartMinCartBasis)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	if base == "0" {
		return 0
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
