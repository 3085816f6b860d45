package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnv = []string{
	"CONFIG_FILE", "DOTENV_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL",
	"GCP_PROJECT", "STOREFRONT_ID", "BACKEND_TYPE", "PAYMENT_RETURN_URL",
	"MIN_CLIENT_VERSION", "RECENTLY_VIEWED_LIMIT", "MEMORY_JWT_SECRET",
	"API_ENDPOINT", "API_KEY", "API_CHROME_TLS", "API_TIMEOUT_SECONDS",
	"STORAGE_DRIVER", "STORAGE_DSN", "STORAGE_REDIS_ADDR", "STORAGE_REDIS_PASSWORD",
	"STORAGE_REDIS_DB", "STORAGE_TTL_HOURS", "PAYMENT_TIMEOUT_MINUTES",
	"MAX_PROFILES", "PROFILE_IDLE_MINUTES",
}

// clearEnv unsets every config variable for the duration of the test and
// points the .env lookup at a file that does not exist.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BACKEND_TYPE", "graphql")
	t.Setenv("API_ENDPOINT", "https://api.shop.test/graphql")
	t.Setenv("API_KEY", "key-123")
	t.Setenv("API_CHROME_TLS", "true")
	t.Setenv("API_TIMEOUT_SECONDS", "5")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("STORAGE_REDIS_ADDR", "localhost:6379")
	t.Setenv("STORAGE_REDIS_DB", "2")
	t.Setenv("MIN_CLIENT_VERSION", "1.4.0")
	t.Setenv("PAYMENT_RETURN_URL", "https://shop.test/checkout/return")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.API.Endpoint != "https://api.shop.test/graphql" || cfg.API.Key != "key-123" {
		t.Errorf("API = %+v", cfg.API)
	}
	if !cfg.API.ChromeTLS {
		t.Error("ChromeTLS = false, want true")
	}
	if cfg.API.Timeout() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout())
	}
	if cfg.Storage.Driver != StorageRedis || cfg.Storage.RedisAddr != "localhost:6379" || cfg.Storage.RedisDB != 2 {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.MinClientVersion != "1.4.0" {
		t.Errorf("MinClientVersion = %s, want 1.4.0", cfg.MinClientVersion)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_TYPE", "memory")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %s, want development", cfg.Environment)
	}
	if cfg.Storage.Driver != StorageSQLite || cfg.Storage.DSN != "storefront.db" {
		t.Errorf("Storage = %+v, want sqlite storefront.db", cfg.Storage)
	}
	if cfg.Storage.TTL() != 720*time.Hour {
		t.Errorf("TTL = %v, want 720h", cfg.Storage.TTL())
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.API.Timeout())
	}
	if cfg.RecentlyViewedLimit != 10 {
		t.Errorf("RecentlyViewedLimit = %d, want 10", cfg.RecentlyViewedLimit)
	}
	if cfg.PaymentTimeout() != 30*time.Minute {
		t.Errorf("PaymentTimeout = %v, want 30m", cfg.PaymentTimeout())
	}
	if cfg.MaxProfiles != 10000 || cfg.ProfileIdle() != time.Hour {
		t.Errorf("profile limits = %d/%v, want 10000/1h", cfg.MaxProfiles, cfg.ProfileIdle())
	}
	if cfg.MemoryJWTSecret == "" {
		t.Error("MemoryJWTSecret should have a development default")
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"BACKEND_TYPE=graphql",
		"API_ENDPOINT=https://api.shop.test/graphql",
		"API_KEY=from-dotenv",
		"PORT=6000",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_FILE", path)
	t.Setenv("PORT", "7000")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.Key != "from-dotenv" {
		t.Errorf("API.Key = %s, want from-dotenv", cfg.API.Key)
	}
	// Real environment wins over .env
	if cfg.Port != "7000" {
		t.Errorf("Port = %s, want 7000", cfg.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "graphql without endpoint",
			env:     map[string]string{"BACKEND_TYPE": "graphql", "API_KEY": "k"},
			wantErr: "endpoint",
		},
		{
			name:    "graphql without key",
			env:     map[string]string{"BACKEND_TYPE": "graphql", "API_ENDPOINT": "https://api.test/graphql"},
			wantErr: "key",
		},
		{
			name:    "relative endpoint",
			env:     map[string]string{"BACKEND_TYPE": "graphql", "API_ENDPOINT": "/graphql", "API_KEY": "k"},
			wantErr: "invalid api endpoint",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"BACKEND_TYPE": "rest"},
			wantErr: "unsupported backend type",
		},
		{
			name:    "unknown storage",
			env:     map[string]string{"BACKEND_TYPE": "memory", "STORAGE_DRIVER": "etcd"},
			wantErr: "unsupported storage driver",
		},
		{
			name:    "redis without address",
			env:     map[string]string{"BACKEND_TYPE": "memory", "STORAGE_DRIVER": "redis"},
			wantErr: "redis_addr",
		},
		{
			name:    "bad integer",
			env:     map[string]string{"BACKEND_TYPE": "memory", "RECENTLY_VIEWED_LIMIT": "many"},
			wantErr: "parsing environment",
		},
		{
			name:    "zero payment timeout",
			env:     map[string]string{"BACKEND_TYPE": "memory", "PAYMENT_TIMEOUT_MINUTES": "0"},
			wantErr: "payment_timeout_minutes",
		},
		{
			name:    "zero profile cap",
			env:     map[string]string{"BACKEND_TYPE": "memory", "MAX_PROFILES": "0"},
			wantErr: "max_profiles",
		},
		{
			name:    "production without project",
			env:     map[string]string{"ENVIRONMENT": "production", "BACKEND_TYPE": "graphql"},
			wantErr: "GCP_PROJECT",
		},
		{
			name:    "production without storefront id",
			env:     map[string]string{"ENVIRONMENT": "production", "BACKEND_TYPE": "graphql", "GCP_PROJECT": "p"},
			wantErr: "STOREFRONT_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(context.Background())
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "3000",
		"backend_type": "graphql",
		"min_client_version": "2.0.0",
		"api": {"endpoint": "https://api.shop.test/graphql", "api_key": "file-key"},
		"storage": {"driver": "memory"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %s, want 3000", cfg.Port)
	}
	if cfg.API.Key != "file-key" {
		t.Errorf("API.Key = %s, want file-key", cfg.API.Key)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("Storage.Driver = %s, want memory", cfg.Storage.Driver)
	}
	// Defaults still apply to fields the file leaves out
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.API.TimeoutSeconds)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		noFile  bool
	}{
		{name: "missing file", noFile: true},
		{name: "invalid JSON", content: "{not json"},
		{name: "invalid config", content: `{"backend_type": "graphql"}`},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "config"+string(rune('a'+i))+".json")
			if !tt.noFile {
				if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := loadFromFile(path); err == nil {
				t.Error("loadFromFile() should fail")
			}
		})
	}
}

func TestApplySecret(t *testing.T) {
	cfg := &Config{API: APIConfig{ChromeTLS: true, TimeoutSeconds: 10}}

	if err := cfg.applySecret([]byte(`{"endpoint":"https://api.test/graphql","api_key":"s3cret"}`)); err != nil {
		t.Fatalf("applySecret() error: %v", err)
	}
	if cfg.API.Endpoint != "https://api.test/graphql" || cfg.API.Key != "s3cret" {
		t.Errorf("API = %+v", cfg.API)
	}
	if !cfg.API.ChromeTLS || cfg.API.TimeoutSeconds != 10 {
		t.Errorf("secret should not reset other fields: %+v", cfg.API)
	}

	if err := cfg.applySecret([]byte("nope")); err == nil {
		t.Error("applySecret() with invalid JSON should fail")
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_VAR", "set")
	if got := envOrDefault("STOREFRONT_TEST_VAR", "default"); got != "set" {
		t.Errorf("envOrDefault() = %s, want set", got)
	}
	if got := envOrDefault("STOREFRONT_TEST_UNSET_VAR", "default"); got != "default" {
		t.Errorf("envOrDefault() = %s, want default", got)
	}
}
