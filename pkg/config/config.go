package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for smartbiz-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (artifact store, rate limiting)
	Redis RedisConfig `yaml:"redis"`

	// AI provider configuration
	AI AIConfig `yaml:"ai"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// MCP tool surface configuration
	MCP MCPConfig `yaml:"mcp"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// Secret signs session cookies and HS256 access tokens.
	// Server will not issue tokens if this is empty.
	Secret string `yaml:"-" env:"AUTH_SECRET"` // Secret - not in YAML

	// TokenTTLMinutes is the lifetime of issued access tokens.
	TokenTTLMinutes int `yaml:"token_ttl_minutes" env:"AUTH_TOKEN_TTL_MINUTES" env-default:"30"`

	// EnableVerification controls whether JWT signatures are validated.
	// Set to false only for local development.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// CookieDomain widens the session cookie scope (e.g. ".example.com").
	// Empty isolates the cookie to the serving hostname.
	CookieDomain string `yaml:"cookie_domain" env:"AUTH_COOKIE_DOMAIN" env-default:""`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs for
	// SSO deployments. When set, RS256 tokens from these issuers are accepted
	// in addition to locally issued HS256 tokens.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"AUTH_JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// TokenTTL returns the access-token lifetime as a duration.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"smartbiz"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"smartbiz_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the artifact document store
// and the rate limiter.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig holds generation-provider configuration.
// Provider selects the backend; the engine never assumes a specific one.
type AIConfig struct {
	// Provider is one of: openai, anthropic, gemini.
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	// Endpoint overrides the provider base URL (OpenAI-compatible servers,
	// proxies). Empty uses the provider default.
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`

	// APIKey authenticates against the provider.
	APIKey string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	// Model is the model identifier sent with every request.
	Model string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`

	// Temperature for generation calls. Low by default: the engine wants
	// consistent scoring/extraction output, not creative variance.
	Temperature float32 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.3"`

	// TimeoutSeconds bounds a single generation call independently of the
	// surrounding request deadline.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"60"`

	// MaxRetries bounds retry attempts for retryable provider failures.
	MaxRetries int `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"3"`
}

// Timeout returns the per-call timeout as a duration.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RateLimitConfig holds the per-actor fixed-window request limits.
type RateLimitConfig struct {
	// PerMinute is the general request limit per actor per minute.
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"60"`
	// AIPerMinute is the stricter limit for AI-augmented endpoints.
	AIPerMinute int `yaml:"ai_per_minute" env:"AI_RATE_LIMIT_PER_MINUTE" env-default:"10"`
}

// MCPConfig controls the agent tool surface.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"false"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (AUTH_SECRET, PGPASSWORD,
// REDIS_PASSWORD, AI_API_KEY) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}
