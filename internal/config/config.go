package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPort     = 8080
	DefaultTimeout  = 60 * time.Second
	DefaultERUCost  = 6000
	DefaultLogLevel = "info"
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Exporter ExporterConfig `yaml:"exporter"`
}

// ExporterConfig holds all exporter settings.
type ExporterConfig struct {
	// Port is the HTTP listen port for /metrics.
	Port int `yaml:"port"`

	// URL is the base URL of the ECE administration API.
	URL string `yaml:"url"`

	// Timeout bounds one whole collection cycle against the ECE API.
	Timeout time.Duration `yaml:"timeout"`

	// StaleAfter is the staleness ceiling for cached metric families.
	// Zero means 3 × Timeout.
	StaleAfter time.Duration `yaml:"stale_after"`

	// ClusterName labels allocator- and proxy-level series with an
	// installation-wide common_cluster_name. Empty omits the label.
	ClusterName string `yaml:"cluster_name"`

	// ERUCost is the yearly ERU cost in cents, used for the per-instance
	// monthly cost metric. Zero disables that metric.
	ERUCost uint64 `yaml:"eru_cost"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Auth configures how the exporter authenticates to the ECE API.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds outbound TLS options.
	TLS TLSConfig `yaml:"tls"`

	// InboundAuth optionally protects the exporter's own HTTP surface.
	InboundAuth InboundAuthConfig `yaml:"inbound_auth"`
}

// AuthConfig specifies the outbound credentials. An API key takes precedence
// over basic auth when both are configured.
type AuthConfig struct {
	// Username is the literal ECE username (safe to store in config).
	Username string `yaml:"username"`

	// PasswordEnv is the name of the environment variable holding the password.
	PasswordEnv string `yaml:"password_env"`

	// APIKeyEnv is the name of the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// APIKey returns the API key resolved from the environment.
func (a AuthConfig) APIKey() string {
	if a.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(a.APIKeyEnv)
}

// TLSConfig holds outbound TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification. Only use
	// this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// InboundAuthConfig configures authentication of incoming scrape requests.
type InboundAuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key".
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the expected inbound API key resolved from the environment.
func (a InboundAuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a InboundAuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// EffectiveStaleAfter returns the staleness ceiling, defaulting to three
// collection timeouts when unset.
func (e ExporterConfig) EffectiveStaleAfter() time.Duration {
	if e.StaleAfter > 0 {
		return e.StaleAfter
	}
	return 3 * e.Timeout
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Exporter: ExporterConfig{
			Port:     DefaultPort,
			Timeout:  DefaultTimeout,
			ERUCost:  DefaultERUCost,
			LogLevel: DefaultLogLevel,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	e := cfg.Exporter
	if e.URL == "" {
		return fmt.Errorf("exporter.url is required")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("exporter.port %d is out of range [1, 65535]", e.Port)
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("exporter.timeout must be positive")
	}
	if e.StaleAfter < 0 {
		return fmt.Errorf("exporter.stale_after must not be negative")
	}
	if e.Auth.APIKeyEnv == "" && (e.Auth.Username == "" || e.Auth.PasswordEnv == "") {
		return fmt.Errorf("exporter.auth needs api_key_env or username + password_env")
	}
	switch e.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("exporter.log_level %q unknown: want debug|info|warn|error", e.LogLevel)
	}
	switch e.InboundAuth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("exporter.inbound_auth.mode %q unknown: want apikey|none", e.InboundAuth.Mode)
	}
	return nil
}
