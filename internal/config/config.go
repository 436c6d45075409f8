// Package config handles the XDG configuration directory, the optional
// config.yaml file, and environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "astroctl"

	// ConfigFile is the optional YAML settings filename.
	ConfigFile = "config.yaml"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// SessionFile is the persisted task session filename.
	SessionFile = "session.json"

	// LockFile marks an open solve stream.
	LockFile = "session.lock"

	// DefaultBaseURL is the backend address used when nothing else is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultStatsInterval is the stats polling cadence.
	DefaultStatsInterval = 5 * time.Second

	// EnvBaseURL overrides base_url.
	EnvBaseURL = "ASTROCTL_BASE_URL"

	// EnvToken supplies a bearer token without touching token.json.
	EnvToken = "ASTROCTL_TOKEN"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the solving backend address.
	BaseURL string

	// StatsInterval is the stats polling cadence.
	StatsInterval time.Duration

	// UserAgent is sent with every request when set.
	UserAgent string

	// Token is a bearer token from the environment. Takes precedence over token.json.
	Token string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Logger is the structured logger for this invocation. Never nil after New.
	Logger *slog.Logger
}

// fileConfig is the on-disk shape of config.yaml.
type fileConfig struct {
	BaseURL       string `yaml:"base_url"`
	StatsInterval string `yaml:"stats_interval"`
	UserAgent     string `yaml:"user_agent"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/astroctl or $HOME/.config/astroctl.
// Settings are layered: defaults, then config.yaml, then environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:           dir,
		BaseURL:       DefaultBaseURL,
		StatsInterval: DefaultStatsInterval,
		Logger:        slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", ConfigFile, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.StatsInterval != "" {
		d, err := time.ParseDuration(fc.StatsInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: stats_interval: %q", ConfigFile, fc.StatsInterval)
		}
		c.StatsInterval = d
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Token = v
	}
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// SessionPath returns the path to the persisted session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// LockPath returns the path to the solve stream lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Dir, LockFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// LoadToken returns the bearer token to use, or nil when the backend is
// accessed anonymously. The environment wins over token.json.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	if c.Token != "" {
		return &oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}, nil
	}

	data, err := os.ReadFile(c.TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TokenFile, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", TokenFile, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("invalid %s: empty access_token", TokenFile)
	}
	return &token, nil
}

// SaveToken writes token.json with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}
