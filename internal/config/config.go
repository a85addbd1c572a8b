package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at process start and passed explicitly to every
// component. Nothing else in the service reads environment variables.
type Config struct {
	Env     string // "development", "test", "production"
	AppPort string

	RedisAddr     string
	RedisPassword string

	// TokenSecret verifies bearer tokens issued by the external identity
	// provider (HMAC). Required in production.
	TokenSecret string

	SessionTTL     time.Duration
	IdempotencyTTL time.Duration

	// TestAuthMode enables the server-side auth bypass. It is forced off
	// in production regardless of the environment variable.
	TestAuthMode bool
}

func Load() (Config, error) {
	// .env.local is for local development only; missing file is fine.
	_ = godotenv.Load(".env.local")

	cfg := Config{
		Env:     getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TokenSecret: getEnv("TOKEN_SECRET", ""),

		SessionTTL:     getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		TestAuthMode: getEnvAsBool("TEST_AUTH_MODE", false),
	}

	if cfg.IsProduction() {
		cfg.TestAuthMode = false
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) validate() error {
	if c.IsProduction() {
		if c.TokenSecret == "" {
			return fmt.Errorf("config: TOKEN_SECRET is required in production")
		}
		if c.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required in production")
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("config: IDEMPOTENCY_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
