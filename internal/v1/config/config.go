package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration
type Config struct {
	// Required variables
	Port string

	// Optional variables with defaults
	GoEnv           string
	LogLevel        string
	DevelopmentMode bool
	AllowedOrigins  string

	// Deck catalog (optional; built-in starter deck is used when empty)
	DeckPath string

	// Redis-backed rate limit store (optional)
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	// Tracing (optional)
	OtelEnabled       bool
	OtelCollectorAddr string

	// Rate limits (ulule formatted, e.g. "100-M" = 100 per minute)
	RateLimitGenerate string
	RateLimitWsIP     string

	// Board generator budget in seconds
	GeneratorBudgetSeconds int
}

// ValidateEnv validates all required environment variables and returns a
// Config object. Returns an error if any required variable is missing or
// invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	// Required: PORT (valid port number)
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		errs = append(errs, "PORT is required")
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	// Conditional: REDIS_ADDR (required if REDIS_ENABLED=true)
	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	if cfg.RedisEnabled {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
			slog.Warn("REDIS_ADDR not set, using default", "addr", cfg.RedisAddr)
		} else if !isValidHostPort(cfg.RedisAddr) {
			errs = append(errs, fmt.Sprintf("REDIS_ADDR must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	// Conditional: OTEL_COLLECTOR_ADDR (required if OTEL_ENABLED=true)
	cfg.OtelEnabled = os.Getenv("OTEL_ENABLED") == "true"
	if cfg.OtelEnabled {
		cfg.OtelCollectorAddr = os.Getenv("OTEL_COLLECTOR_ADDR")
		if cfg.OtelCollectorAddr == "" {
			errs = append(errs, "OTEL_COLLECTOR_ADDR is required when OTEL_ENABLED=true")
		} else if !isValidHostPort(cfg.OtelCollectorAddr) {
			errs = append(errs, fmt.Sprintf("OTEL_COLLECTOR_ADDR must be in format 'host:port' (got '%s')", cfg.OtelCollectorAddr))
		}
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = os.Getenv("GO_ENV")
	if cfg.GoEnv == "" {
		cfg.GoEnv = "production"
	}

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.DevelopmentMode = os.Getenv("DEVELOPMENT_MODE") == "true"
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.DeckPath = os.Getenv("DECK_PATH")

	// Rate limits (Defaults: M = Minute)
	cfg.RateLimitGenerate = getEnvOrDefault("RATE_LIMIT_GENERATE", "30-M")
	cfg.RateLimitWsIP = getEnvOrDefault("RATE_LIMIT_WS_IP", "100-M")

	// Optional: GENERATOR_BUDGET_SECONDS (defaults to 60)
	cfg.GeneratorBudgetSeconds = 60
	if raw := os.Getenv("GENERATOR_BUDGET_SECONDS"); raw != "" {
		budget, err := strconv.Atoi(raw)
		if err != nil || budget < 1 {
			errs = append(errs, fmt.Sprintf("GENERATOR_BUDGET_SECONDS must be a positive integer (got '%s')", raw))
		} else {
			cfg.GeneratorBudgetSeconds = budget
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// isValidHostPort checks if a string is in the format "host:port"
func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}

	if parts[0] == "" {
		return false
	}

	return true
}

// logValidatedConfig logs the validated configuration
func logValidatedConfig(cfg *Config) {
	slog.Info("✅ Environment configuration validated successfully")
	slog.Info("Configuration",
		"port", cfg.Port,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"development_mode", cfg.DevelopmentMode,
		"deck_path", cfg.DeckPath,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"otel_enabled", cfg.OtelEnabled,
		"rate_limit_generate", cfg.RateLimitGenerate,
		"rate_limit_ws_ip", cfg.RateLimitWsIP,
		"generator_budget_seconds", cfg.GeneratorBudgetSeconds,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default
// value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
