// Package config handles loading and validation of service configuration.
// Supports a JSON file, environment variables (with an optional .env file)
// and, in production, API credentials from Secret Manager.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Backend types.
const (
	BackendGraphQL = "graphql"
	BackendMemory  = "memory"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds all service configuration.
// Environment determines whether API credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `json:"port" env:"PORT" envDefault:"8080"`
	Environment string `json:"environment" env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `json:"log_level" env:"LOG_LEVEL" envDefault:"info"`

	// GCP settings (required in production)
	GCPProject   string `json:"gcp_project" env:"GCP_PROJECT"`
	StorefrontID string `json:"storefront_id" env:"STOREFRONT_ID"`

	// BackendType selects the commerce API: "graphql" or "memory".
	BackendType string `json:"backend_type" env:"BACKEND_TYPE" envDefault:"graphql"`

	// ReturnURL is where the payment gateway sends the browser back.
	ReturnURL string `json:"payment_return_url" env:"PAYMENT_RETURN_URL"`

	// MinClientVersion rejects older client builds. Empty admits all.
	MinClientVersion string `json:"min_client_version" env:"MIN_CLIENT_VERSION"`

	RecentlyViewedLimit int `json:"recently_viewed_limit" env:"RECENTLY_VIEWED_LIMIT" envDefault:"10"`

	// PaymentTimeoutMinutes fails a gateway payment left unresolved this long.
	PaymentTimeoutMinutes int `json:"payment_timeout_minutes" env:"PAYMENT_TIMEOUT_MINUTES" envDefault:"30"`

	// MaxProfiles caps in-process profile state; the least recently used
	// profile is dropped first. ProfileIdleMinutes drops idle profiles.
	MaxProfiles        int `json:"max_profiles" env:"MAX_PROFILES" envDefault:"10000"`
	ProfileIdleMinutes int `json:"profile_idle_minutes" env:"PROFILE_IDLE_MINUTES" envDefault:"60"`

	// MemoryJWTSecret signs session tokens of the in-memory backend.
	MemoryJWTSecret string `json:"memory_jwt_secret" env:"MEMORY_JWT_SECRET" envDefault:"dev-secret"`

	API     APIConfig     `json:"api" envPrefix:"API_"`
	Storage StorageConfig `json:"storage" envPrefix:"STORAGE_"`
}

// APIConfig points at the remote GraphQL API.
// In production, Endpoint and Key are loaded from Secret Manager as JSON.
type APIConfig struct {
	Endpoint       string `json:"endpoint" env:"ENDPOINT"`
	Key            string `json:"api_key" env:"KEY"`
	ChromeTLS      bool   `json:"chrome_tls" env:"CHROME_TLS"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"TIMEOUT_SECONDS" envDefault:"30"`
}

// StorageConfig selects the profile store.
type StorageConfig struct {
	Driver        string `json:"driver" env:"DRIVER" envDefault:"sqlite"`
	DSN           string `json:"dsn" env:"DSN" envDefault:"storefront.db"`
	RedisAddr     string `json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `json:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db" env:"REDIS_DB"`
	TTLHours      int    `json:"ttl_hours" env:"TTL_HOURS" envDefault:"720"`
}

// Timeout returns the API request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// TTL returns how long idle profiles are kept in Redis.
func (s StorageConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// PaymentTimeout returns how long a gateway payment may stay unresolved.
func (c *Config) PaymentTimeout() time.Duration {
	return time.Duration(c.PaymentTimeoutMinutes) * time.Minute
}

// ProfileIdle returns how long an unused profile stays in memory.
func (c *Config) ProfileIdle() time.Duration {
	return time.Duration(c.ProfileIdleMinutes) * time.Minute
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → .env + ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Variables already set win over the .env file
	dotenv := envOrDefault("DOTENV_FILE", ".env")
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", dotenv, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.IsProduction() && cfg.BackendType == BackendGraphQL {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StorefrontID == "" {
			return nil, fmt.Errorf("STOREFRONT_ID required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading API config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := defaults()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config holding only the envDefault values.
func defaults() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	return cfg, nil
}

// loadFromSecretManager fetches API credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{storefront_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StorefrontID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecret(result.Payload.Data)
}

// applySecret merges the secret JSON into the API config. Fields absent
// from the secret keep their environment values.
func (c *Config) applySecret(data []byte) error {
	if err := json.Unmarshal(data, &c.API); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	switch c.BackendType {
	case BackendGraphQL:
		if c.API.Endpoint == "" {
			return fmt.Errorf("api endpoint is required for the graphql backend")
		}
		if c.API.Key == "" {
			return fmt.Errorf("api key is required for the graphql backend")
		}
		u, err := url.Parse(c.API.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api endpoint %q", c.API.Endpoint)
		}
	case BackendMemory:
		if c.MemoryJWTSecret == "" {
			return fmt.Errorf("memory_jwt_secret is required for the memory backend")
		}
	default:
		return fmt.Errorf("unsupported backend type: %s", c.BackendType)
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage dsn is required for sqlite")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage redis_addr is required for redis")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if c.ReturnURL != "" {
		if _, err := url.Parse(c.ReturnURL); err != nil {
			return fmt.Errorf("invalid payment_return_url: %w", err)
		}
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.RecentlyViewedLimit <= 0 {
		return fmt.Errorf("recently_viewed_limit must be positive")
	}
	if c.PaymentTimeoutMinutes <= 0 {
		return fmt.Errorf("payment_timeout_minutes must be positive")
	}
	if c.MaxProfiles <= 0 {
		return fmt.Errorf("max_profiles must be positive")
	}
	if c.ProfileIdleMinutes <= 0 {
		return fmt.Errorf("profile_idle_minutes must be positive")
	}

	return nil
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
