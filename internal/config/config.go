// Package config loads and saves the budgetchat TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "budgetchat"

// APIKeyEnv overrides the configured estimator API key.
const APIKeyEnv = "BUDGETCHAT_API_KEY"

// Estimator kinds.
const (
	EstimatorCanned = "canned"
	EstimatorHTTP   = "http"
	EstimatorOpenAI = "openai"
)

// ErrInvalidConfig is wrapped by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all budgetchat configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Estimator  EstimatorConfig  `toml:"estimator"`
	Assistant  AssistantConfig  `toml:"assistant"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds session preferences.
type GeneralConfig struct {
	// Seed is "default", "empty" or a path to a YAML budget.
	Seed    string `toml:"seed"`
	Archive bool   `toml:"archive"`
}

// EstimatorConfig selects and configures the reply collaborator.
type EstimatorConfig struct {
	Kind              string `toml:"kind"`
	Endpoint          string `toml:"endpoint,omitempty"`
	Model             string `toml:"model,omitempty"`
	APIKey            string `toml:"api_key,omitempty"`
	TimeoutSec        int    `toml:"timeout_sec"`
	RequestsPerMinute int    `toml:"requests_per_minute,omitempty"`
}

// AssistantConfig overrides the assistant's fixed messages.
type AssistantConfig struct {
	Greeting      string `toml:"greeting,omitempty"`
	FailureNotice string `toml:"failure_notice,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Seed:    SeedDefault,
			Archive: true,
		},
		Estimator: EstimatorConfig{
			Kind:       EstimatorCanned,
			TimeoutSec: 30,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Timeout returns the estimation timeout.
func (c Config) Timeout() time.Duration {
	if c.Estimator.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Estimator.TimeoutSec) * time.Second
}

// Validate checks the estimator settings.
func (c Config) Validate() error {
	switch c.Estimator.Kind {
	case EstimatorCanned, "":
	case EstimatorHTTP:
		if c.Estimator.Endpoint == "" {
			return fmt.Errorf("%w: estimator kind %q needs an endpoint", ErrInvalidConfig, c.Estimator.Kind)
		}
	case EstimatorOpenAI:
		if GetAPIKey(c) == "" {
			return fmt.Errorf("%w: estimator kind %q needs an api key", ErrInvalidConfig, c.Estimator.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown estimator kind %q", ErrInvalidConfig, c.Estimator.Kind)
	}
	if c.Estimator.TimeoutSec < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.Estimator.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: negative requests_per_minute", ErrInvalidConfig)
	}
	return nil
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}

// ArchivePath returns the turn archive database path.
func ArchivePath() string {
	return filepath.Join(CacheDir(), "turns.db")
}

// LogPath returns the log file used while the terminal is taken over.
func LogPath() string {
	return filepath.Join(CacheDir(), appName+".log")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetAPIKey returns the estimator API key from env var or config, in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}
	return cfg.Estimator.APIKey
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
