// ABOUTME: Configuration loading and parsing for sms-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sms-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Responder ResponderConfig `yaml:"responder"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ResponderConfig holds reply-generation configuration
type ResponderConfig struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// TwilioConfig holds carrier credentials. When disabled, outgoing
// messages are logged instead of delivered.
type TwilioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// WebhookConfig holds inbound webhook tuning
type WebhookConfig struct {
	DedupeTTL time.Duration `yaml:"-"`

	DedupeTTLRaw string `yaml:"dedupe_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

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

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Twilio.Enabled {
		if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
			return fmt.Errorf("twilio.account_sid and twilio.auth_token are required when twilio is enabled")
		}
		if c.Twilio.FromNumber == "" {
			return fmt.Errorf("twilio.from_number is required when twilio is enabled")
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Responder.TimeoutRaw != "" {
		cfg.Responder.Timeout, err = time.ParseDuration(cfg.Responder.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing responder.timeout %q: %w", cfg.Responder.TimeoutRaw, err)
		}
	}

	if cfg.Webhook.DedupeTTLRaw != "" {
		cfg.Webhook.DedupeTTL, err = time.ParseDuration(cfg.Webhook.DedupeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing webhook.dedupe_ttl %q: %w", cfg.Webhook.DedupeTTLRaw, err)
		}
	}

	return nil
}
