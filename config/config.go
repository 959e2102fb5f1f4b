package config

import (
	"strings"
	"time"

	"github.com/kbukum/bkper/errors"
	"github.com/kbukum/bkper/httpclient"
	"github.com/kbukum/bkper/logger"
	"github.com/kbukum/bkper/validation"
)

const (
	// ServiceName is the name used to locate config files and prefix env vars.
	ServiceName = "bkper"

	DefaultBaseURL      = "https://app.bkper.com/_ah/api/bkper/v5"
	DefaultAPIKeyHeader = "bkper-api-key"
	DefaultAPIKeyQuery  = "key"
	DefaultTimeout      = 30 * time.Second
	DefaultExpirySkew   = time.Minute
)

// Config is the resolved configuration of a bkper client.
type Config struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`

	// APIKey is optional; an empty key means unauthenticated API-key access.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// APIKeyIn places the key in a "header" (default) or "query" parameter.
	APIKeyIn string `yaml:"api_key_in" mapstructure:"api_key_in" validate:"oneof=header query"`
	// APIKeyName is the header or query parameter name carrying the key.
	APIKeyName string `yaml:"api_key_name" mapstructure:"api_key_name" validate:"required"`

	OAuth     OAuthConfig           `yaml:"oauth" mapstructure:"oauth"`
	RateLimit RateLimitConfig       `yaml:"rate_limit" mapstructure:"rate_limit"`
	TLS       *httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`
	ProxyURL  string                `yaml:"proxy_url" mapstructure:"proxy_url" validate:"omitempty,url"`
	Headers   map[string]string     `yaml:"headers" mapstructure:"headers"`
	Logging   logger.Config         `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig       `yaml:"telemetry" mapstructure:"telemetry"`
}

// OAuthConfig configures the OAuth2 access-token provider.
// A static AccessToken is used as-is. With a RefreshToken the provider
// exchanges it at TokenURL for fresh access tokens; a seeded AccessToken is
// used first only while its JWT exp claim shows it unexpired.
type OAuthConfig struct {
	ClientID     string   `yaml:"client_id" mapstructure:"client_id" validate:"required_with=RefreshToken"`
	ClientSecret string   `yaml:"client_secret" mapstructure:"client_secret"`
	TokenURL     string   `yaml:"token_url" mapstructure:"token_url" validate:"omitempty,url"`
	RefreshToken string   `yaml:"refresh_token" mapstructure:"refresh_token"`
	AccessToken  string   `yaml:"access_token" mapstructure:"access_token"`
	Scopes       []string `yaml:"scopes" mapstructure:"scopes"`

	// ExpirySkew defaults to DefaultExpirySkew when unset; 0 disables it.
	ExpirySkew *time.Duration `yaml:"expiry_skew" mapstructure:"expiry_skew" validate:"omitempty,gte=0"`
}

// Enabled reports whether any OAuth credential source is configured.
func (c OAuthConfig) Enabled() bool {
	return c.RefreshToken != "" || c.AccessToken != ""
}

// RateLimitConfig throttles outbound calls client-side. Rate 0 disables it.
type RateLimitConfig struct {
	Rate  float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	Burst int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// TelemetryConfig enables OTLP trace and metric export.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.APIKeyIn == "" {
		c.APIKeyIn = "header"
	}
	if c.APIKeyName == "" {
		if c.APIKeyIn == "query" {
			c.APIKeyName = DefaultAPIKeyQuery
		} else {
			c.APIKeyName = DefaultAPIKeyHeader
		}
	}
	if c.OAuth.ExpirySkew == nil {
		skew := DefaultExpirySkew
		c.OAuth.ExpirySkew = &skew
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	c.Logging.ApplyDefaults()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.OAuth.RefreshToken != "" && c.OAuth.TokenURL == "" {
		return errors.InvalidConfig("oauth.token_url", "required when oauth.refresh_token is set")
	}
	if err := c.TLS.Validate(); err != nil {
		return errors.InvalidConfig("tls", err.Error()).WithCause(err)
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidConfig("logging", err.Error()).WithCause(err)
	}
	if !strings.HasPrefix(c.BaseURL, "https://") && c.TLS.IsEnabled() {
		return errors.InvalidConfig("tls", "tls settings require an https base_url")
	}
	return nil
}

// LoadOption configures Load.
type LoadOption = LoaderOption

// Load reads configuration for the bkper client from config.yml, .env and
// BKPER_* environment variables, applies defaults and validates the result.
func Load(opts ...LoadOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
