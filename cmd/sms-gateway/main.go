// ABOUTME: Entry point for the sms-gateway server
// ABOUTME: Webhook intake, automated replies and the dashboard API

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/sms-gateway/internal/config"
	"github.com/2389/sms-gateway/internal/conversation"
	"github.com/2389/sms-gateway/internal/dedupe"
	"github.com/2389/sms-gateway/internal/delivery"
	"github.com/2389/sms-gateway/internal/httpapi"
	"github.com/2389/sms-gateway/internal/respond"
	"github.com/2389/sms-gateway/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 ___ _ __ ___  ___        __ _  __ _| |_ _____      ____ _ _   _
/ __| '_ ' _ \/ __|_____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
\__ \ | | | | \__ \_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|___/_| |_| |_|___/      \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                         |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: SMS_GATEWAY_CONFIG env var > XDG_CONFIG_HOME/sms-gateway/gateway.yaml > ~/.config/sms-gateway/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SMS_GATEWAY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "sms-gateway", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: sms-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the gateway server")
		fmt.Println("  init     Create a starter config file")
		fmt.Println("  health   Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	// Optional .env for local development (API keys, Twilio creds)
	_ = godotenv.Load()

	configPath := getConfigPath()

	color.Cyan(banner)
	color.White("sms-gateway %s", version)
	fmt.Println()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	setupLogging(cfg.Logging)
	logger := slog.Default()

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return errors.New("ANTHROPIC_API_KEY environment variable is required")
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var sender delivery.Sender
	if cfg.Twilio.Enabled {
		sender, err = delivery.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		if err != nil {
			return fmt.Errorf("configuring twilio: %w", err)
		}
	} else {
		logger.Warn("twilio disabled, outgoing messages will only be logged")
		sender = delivery.NewLogSender()
	}

	generator := respond.NewClaude(cfg.Responder.Model)

	svcCfg := conversation.DefaultConfig()
	if cfg.Responder.Timeout > 0 {
		svcCfg = svcCfg.WithGenerationTimeout(cfg.Responder.Timeout)
	}
	svc := conversation.New(st, generator, sender, svcCfg, logger)
	defer svc.Close()

	api := httpapi.New(svc, st, dedupe.New(cfg.Webhook.DedupeTTL, 0), logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	color.Green("✓ Gateway ready")
	fmt.Printf("  Webhook:   http://%s/webhook/sms\n", cfg.Server.HTTPAddr)
	fmt.Printf("  Dashboard: http://%s/dashboard\n", cfg.Server.HTTPAddr)
	fmt.Println()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	return nil
}

const starterConfig = `server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./sms-gateway.db"

responder:
  model: "claude-3-5-sonnet-latest"
  timeout: "15s"

twilio:
  enabled: false
  account_sid: "${TWILIO_ACCOUNT_SID}"
  auth_token: "${TWILIO_AUTH_TOKEN}"
  from_number: "${TWILIO_FROM_NUMBER}"

webhook:
  dedupe_ttl: "10m"

logging:
  level: "info"
  format: "text"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	color.Green("✓ Config written to %s", configPath)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("reading health response: %w", err)
	}

	if body.Status != "healthy" {
		return fmt.Errorf("gateway reports status %q", body.Status)
	}

	color.Green("✓ Gateway is healthy")
	return nil
}

// setupLogging configures slog from the logging config.
func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
