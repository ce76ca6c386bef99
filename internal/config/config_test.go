// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

responder:
  model: "claude-3-5-sonnet-latest"
  timeout: "20s"

twilio:
  enabled: true
  account_sid: "AC123"
  auth_token: "token"
  from_number: "+15550009999"

webhook:
  dedupe_ttl: "5m"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("HTTPAddr = %q, want 0.0.0.0:8080", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want ./test.db", cfg.Database.Path)
	}
	if cfg.Responder.Model != "claude-3-5-sonnet-latest" {
		t.Errorf("Responder.Model = %q", cfg.Responder.Model)
	}
	if cfg.Responder.Timeout != 20*time.Second {
		t.Errorf("Responder.Timeout = %v, want 20s", cfg.Responder.Timeout)
	}
	if cfg.Webhook.DedupeTTL != 5*time.Minute {
		t.Errorf("Webhook.DedupeTTL = %v, want 5m", cfg.Webhook.DedupeTTL)
	}
	if !cfg.Twilio.Enabled || cfg.Twilio.FromNumber != "+15550009999" {
		t.Errorf("Twilio config not parsed: %+v", cfg.Twilio)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging config not parsed: %+v", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("SMS_TEST_AUTH_TOKEN", "secret-token")

	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"

twilio:
  enabled: true
  account_sid: "AC123"
  auth_token: "${SMS_TEST_AUTH_TOKEN}"
  from_number: "+15550009999"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Twilio.AuthToken != "secret-token" {
		t.Errorf("AuthToken = %q, want expanded env value", cfg.Twilio.AuthToken)
	}
}

func TestLoad_MissingHTTPAddr(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "http_addr") {
		t.Errorf("expected http_addr validation error, got %v", err)
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "database.path") {
		t.Errorf("expected database.path validation error, got %v", err)
	}
}

func TestLoad_TwilioEnabledRequiresCredentials(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"

twilio:
  enabled: true
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "twilio") {
		t.Errorf("expected twilio validation error, got %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"

responder:
  timeout: "soonish"
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "responder.timeout") {
		t.Errorf("expected duration parse error, got %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
