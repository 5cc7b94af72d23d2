// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ericfisherdev/rivianctl/internal/adapter/driven/rivian"
	"github.com/ericfisherdev/rivianctl/internal/application"
	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// Credential store backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

const (
	defaultSQLitePath = "rivian_auth.db"
	defaultFilePath   = "rivian_auth.json"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Username string
	Password string
	// Authorization is the parsed RIVIAN_AUTHORIZATION override, or nil.
	Authorization *model.CredentialBundle

	StateBackend string
	StatePath    string
	BaseURL      string

	PollInterval   time.Duration
	InactivityWait time.Duration
	SleepWait      time.Duration
}

// HasPasswordCredentials returns true when both Username and Password are set.
func (c *Config) HasPasswordCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// RIVIAN_USERNAME and RIVIAN_PASSWORD are only required by --login.
// RIVIAN_AUTHORIZATION ("access;refresh;userSession") replaces the stored
// credentials for this run. Optional variables with defaults:
// RIVIANCTL_STATE_BACKEND (sqlite), RIVIANCTL_STATE_PATH (rivian_auth.db, or
// rivian_auth.json for the file backend), RIVIANCTL_BASE_URL,
// RIVIANCTL_POLL_INTERVAL (30s), RIVIANCTL_INACTIVITY_WAIT (0, disabled),
// RIVIANCTL_SLEEP_WAIT (40m).
func Load() (*Config, error) {
	cfg := &Config{
		Username:     os.Getenv("RIVIAN_USERNAME"),
		Password:     os.Getenv("RIVIAN_PASSWORD"),
		StateBackend: BackendSQLite,
		BaseURL:      rivian.DefaultBaseURL,
		PollInterval: application.DefaultPollInterval,
		SleepWait:    application.DefaultLongPause,
	}

	if v, ok := os.LookupEnv("RIVIAN_AUTHORIZATION"); ok && v != "" {
		bundle, err := model.ParseAuthorization(v)
		if err != nil {
			return nil, fmt.Errorf("RIVIAN_AUTHORIZATION: %w", err)
		}
		cfg.Authorization = &bundle
	}

	if v, ok := os.LookupEnv("RIVIANCTL_STATE_BACKEND"); ok && v != "" {
		switch v {
		case BackendSQLite, BackendFile:
			cfg.StateBackend = v
		default:
			return nil, fmt.Errorf("RIVIANCTL_STATE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendFile, v)
		}
	}

	cfg.StatePath = defaultSQLitePath
	if cfg.StateBackend == BackendFile {
		cfg.StatePath = defaultFilePath
	}
	if v, ok := os.LookupEnv("RIVIANCTL_STATE_PATH"); ok && v != "" {
		cfg.StatePath = v
	}

	if v, ok := os.LookupEnv("RIVIANCTL_BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}

	var err error
	if cfg.PollInterval, err = durationEnv("RIVIANCTL_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("RIVIANCTL_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}

	if cfg.InactivityWait, err = durationEnv("RIVIANCTL_INACTIVITY_WAIT", 0); err != nil {
		return nil, err
	}
	if cfg.InactivityWait < 0 {
		return nil, fmt.Errorf("RIVIANCTL_INACTIVITY_WAIT must not be negative, got %s", cfg.InactivityWait)
	}

	if cfg.SleepWait, err = durationEnv("RIVIANCTL_SLEEP_WAIT", cfg.SleepWait); err != nil {
		return nil, err
	}
	if cfg.SleepWait <= 0 {
		return nil, fmt.Errorf("RIVIANCTL_SLEEP_WAIT must be positive, got %s", cfg.SleepWait)
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}
