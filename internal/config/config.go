package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Secrets can also come
// from the environment so they never have to live on disk.
type Config struct {
	// DBPath overrides the default database location (~/.dopamine.db).
	DBPath string `yaml:"db_path,omitempty"`

	// GoogleClientID and GoogleClientSecret identify the OAuth client used
	// for the calendar integration. Without a client id the calendar
	// commands fail with a configuration error.
	GoogleClientID     string `yaml:"google_client_id,omitempty"`
	GoogleClientSecret string `yaml:"google_client_secret,omitempty"`

	// GeminiAPIKey authenticates coaching requests.
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`

	// SyncCron is the cron schedule used by `dopa calendar watch`.
	SyncCron string `yaml:"sync_cron"`
}

// Environment variable overrides.
const (
	EnvGoogleClientID     = "DOPA_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "DOPA_GOOGLE_CLIENT_SECRET"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
)

func DefaultConfig() *Config {
	return &Config{
		SyncCron: "*/15 * * * *",
	}
}

// Normalize fills missing values and applies environment overrides.
func (c *Config) Normalize() {
	if c.SyncCron == "" {
		c.SyncCron = "*/15 * * * *"
	}
	if v := os.Getenv(EnvGoogleClientID); v != "" {
		c.GoogleClientID = v
	}
	if v := os.Getenv(EnvGoogleClientSecret); v != "" {
		c.GoogleClientSecret = v
	}
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.GeminiAPIKey = v
	}
}

// DefaultPath returns the config file location (~/.config/dopamine/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "dopamine", "config.yaml"), nil
}

// Load reads the YAML config at path, creating a default file on first run.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically with 0600 permissions (it may hold secrets).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dopamine-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
