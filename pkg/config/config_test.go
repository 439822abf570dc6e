package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, yamlContent string) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeTestConfig(t, `
port: "8000"
env: "test"
database:
  host: "db.example.com"
  database: "smartbiz_test"
redis:
  addr: "redis.example.com:6379"
ai:
  provider: "openai"
  model: "gpt-4o-mini"
`)

	os.Unsetenv("PGHOST")
	os.Unsetenv("BASE_URL")

	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AI_PROVIDER", "anthropic")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected Port=9000 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("expected AI.Provider=anthropic (from env), got %s", cfg.AI.Provider)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// YAML value used where no env override exists
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host=db.example.com (from yaml), got %s", cfg.Database.Host)
	}

	// BaseURL auto-derived from the effective port
	if cfg.BaseURL != "http://localhost:9000" {
		t.Errorf("expected BaseURL=http://localhost:9000, got %s", cfg.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	writeTestConfig(t, `
env: "test"
`)

	os.Unsetenv("PORT")
	os.Unsetenv("BASE_URL")
	os.Unsetenv("AI_PROVIDER")
	os.Unsetenv("RATE_LIMIT_PER_MINUTE")
	os.Unsetenv("AI_RATE_LIMIT_PER_MINUTE")
	os.Unsetenv("AUTH_TOKEN_TTL_MINUTES")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default Port=8000, got %s", cfg.Port)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("expected default AI.Provider=openai, got %s", cfg.AI.Provider)
	}
	if cfg.RateLimit.PerMinute != 60 {
		t.Errorf("expected default RateLimit.PerMinute=60, got %d", cfg.RateLimit.PerMinute)
	}
	if cfg.RateLimit.AIPerMinute != 10 {
		t.Errorf("expected default RateLimit.AIPerMinute=10, got %d", cfg.RateLimit.AIPerMinute)
	}
	if cfg.Auth.TokenTTLMinutes != 30 {
		t.Errorf("expected default Auth.TokenTTLMinutes=30, got %d", cfg.Auth.TokenTTLMinutes)
	}
}

func TestParseJWKSEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: map[string]string{},
		},
		{
			name:  "single pair",
			input: "https://auth.example.com=https://auth.example.com/.well-known/jwks.json",
			expected: map[string]string{
				"https://auth.example.com": "https://auth.example.com/.well-known/jwks.json",
			},
		},
		{
			name:  "multiple pairs with whitespace",
			input: "https://a.example.com=https://a.example.com/jwks, https://b.example.com=https://b.example.com/jwks",
			expected: map[string]string{
				"https://a.example.com": "https://a.example.com/jwks",
				"https://b.example.com": "https://b.example.com/jwks",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseJWKSEndpoints(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d endpoints, got %d", len(tt.expected), len(got))
			}
			for issuer, url := range tt.expected {
				if got[issuer] != url {
					t.Errorf("endpoint %s: expected %s, got %s", issuer, url, got[issuer])
				}
			}
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "smartbiz",
		Password: "secret",
		Database: "smartbiz_engine",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=smartbiz password=secret dbname=smartbiz_engine sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
