// ABOUTME: Configuration loading and parsing for pepper-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pepper-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Auth      AuthConfig      `yaml:"auth"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// ProviderConfig holds the upstream LLM provider configuration.
// The provider speaks the OpenAI-compatible chat completion API; BaseURL
// can point it at any compatible endpoint.
type ProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`

	// MaxToolRounds bounds the tool-call loop for a single invocation.
	MaxToolRounds int `yaml:"max_tool_rounds"`
}

// AuthConfig holds authentication configuration.
// BearerToken is the static shared secret checked against the Authorization
// header on authenticated endpoints. Empty means auth is disabled (dev mode).
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// GatewayConfig holds settings for the gateway's own API surface
type GatewayConfig struct {
	// ModelID is the model identifier advertised by /v1/models
	ModelID string `yaml:"model_id"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Token optionally guards the metrics endpoint with its own bearer token
	Token string `yaml:"token"`
}

// Defaults applied when the config file leaves fields unset.
const (
	DefaultHTTPAddr      = "0.0.0.0:8080"
	DefaultModel         = "claude-3-haiku-20240307"
	DefaultModelID       = "pepper-agent"
	DefaultMaxTokens     = 500
	DefaultTemperature   = 0.7
	DefaultTimeout       = 60 * time.Second
	DefaultMaxToolRounds = 4
	DefaultMetricsPath   = "/metrics"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in default values for unset fields and falls back to
// well-known environment variables for the two secrets.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" && !c.Tailscale.Enabled {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("PEPPER_PROVIDER_API_KEY")
	}
	if c.Provider.Model == "" {
		c.Provider.Model = DefaultModel
	}
	if c.Provider.MaxTokens == 0 {
		c.Provider.MaxTokens = DefaultMaxTokens
	}
	if c.Provider.Temperature == 0 {
		c.Provider.Temperature = DefaultTemperature
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultTimeout
	}
	if c.Provider.MaxToolRounds == 0 {
		c.Provider.MaxToolRounds = DefaultMaxToolRounds
	}
	if c.Auth.BearerToken == "" {
		c.Auth.BearerToken = os.Getenv("PEPPER_BEARER_TOKEN")
	}
	if c.Gateway.ModelID == "" {
		c.Gateway.ModelID = DefaultModelID
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// The HTTP address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	// No agent calls are possible without the provider key, so fail fast
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required (or set PEPPER_PROVIDER_API_KEY)")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func (c *Config) parseDurations() error {
	var err error

	if c.Provider.TimeoutRaw != "" {
		c.Provider.Timeout, err = time.ParseDuration(c.Provider.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing provider.timeout %q: %w", c.Provider.TimeoutRaw, err)
		}
	}

	return nil
}
