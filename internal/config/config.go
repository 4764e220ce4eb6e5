package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models flightpath.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	GitHub GitHubConfig `yaml:"github"`
}

// GitHubConfig holds the external-host settings shared by the webhook
// verifier and the poller. APIBaseURL is overridable so tests can point the
// poller at a local server.
type GitHubConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
	APIBaseURL    string `yaml:"api_base_url"`
	LookbackDays  int    `yaml:"lookback_days"`
}

const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultBasePath     = "/v0"
	DefaultLookbackDays = 30
)

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.GitHub.LookbackDays < 0 {
		return fmt.Errorf("config.github.lookback_days must not be negative")
	}
	return nil
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	if c.GitHub.LookbackDays == 0 {
		c.GitHub.LookbackDays = DefaultLookbackDays
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "flightpath.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns defaults if the workspace config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}
