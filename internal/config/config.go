// Package config loads sheetdesk configuration from a YAML file with
// environment-variable overrides, and hot-reloads it on file change.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ListenAddr is the command-surface bind address the GUI shell talks to.
	ListenAddr string `yaml:"listen_addr"`
	// APIToken, when set, is required as a bearer token on every request.
	APIToken string `yaml:"api_token"`

	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	// SheetsBaseURL overrides the Google endpoint; used by tests and proxies.
	SheetsBaseURL string `yaml:"sheets_base_url"`

	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`

	// NotifyPollInterval is how often the websocket stream re-scans the
	// Notifications sheet for each connected client.
	NotifyPollInterval time.Duration `yaml:"notify_poll_interval"`

	ExportsDir string `yaml:"exports_dir"`
}

func Default() Config {
	return Config{
		ListenAddr:         ":8321",
		CredentialsFile:    "service-account.json",
		MaxRetries:         3,
		RetryDelay:         100 * time.Millisecond,
		NotifyPollInterval: 30 * time.Second,
		ExportsDir:         "exports",
	}
}

// Load reads path (optional), then applies environment overrides. A missing
// file is not an error: env-only deployments are supported.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to env
		default:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.SpreadsheetID == "" {
		return Config{}, fmt.Errorf("spreadsheet_id is required (config file or SHEETDESK_SPREADSHEET_ID)")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = strEnv("SHEETDESK_ADDR", c.ListenAddr)
	c.APIToken = strEnv("SHEETDESK_API_TOKEN", c.APIToken)
	c.SpreadsheetID = strEnv("SHEETDESK_SPREADSHEET_ID", c.SpreadsheetID)
	c.CredentialsFile = strEnv("SHEETDESK_CREDENTIALS_FILE", c.CredentialsFile)
	c.SheetsBaseURL = strEnv("SHEETDESK_SHEETS_BASE_URL", c.SheetsBaseURL)
	c.MaxRetries = intEnv("SHEETDESK_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = durationEnv("SHEETDESK_RETRY_DELAY", c.RetryDelay)
	c.NotifyPollInterval = durationEnv("SHEETDESK_NOTIFY_POLL_INTERVAL", c.NotifyPollInterval)
	c.ExportsDir = strEnv("SHEETDESK_EXPORTS_DIR", c.ExportsDir)
}

func strEnv(name, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
