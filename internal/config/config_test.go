package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroctl/internal/config"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte(body), 0600))
}

func TestNewDefaults(t *testing.T) {
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvToken, "")
	dir := t.TempDir()

	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, config.DefaultStatsInterval, cfg.StatsInterval)
	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, filepath.Join(dir, config.SessionFile), cfg.SessionPath())
	assert.Equal(t, filepath.Join(dir, config.LockFile), cfg.LockPath())
}

func TestNewReadsConfigFile(t *testing.T) {
	t.Setenv(config.EnvBaseURL, "")
	dir := t.TempDir()
	writeConfig(t, dir, "base_url: https://solver.example\nstats_interval: 30s\nuser_agent: tester/1\n")

	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://solver.example", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	assert.Equal(t, "tester/1", cfg.UserAgent)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base_url: https://solver.example\n")
	t.Setenv(config.EnvBaseURL, " http://127.0.0.1:9000 ")
	t.Setenv(config.EnvToken, "env-token")

	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL)

	token, err := cfg.LoadToken()
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "env-token", token.AccessToken)
}

func TestInvalidConfigFile(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "base_url: [\n"},
		{"bad interval", "stats_interval: soon\n"},
		{"negative interval", "stats_interval: -5s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)

			_, err := config.New(dir)
			assert.ErrorContains(t, err, "invalid "+config.ConfigFile)
		})
	}
}

func TestDefaultConfigDirUsesXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, config.AppName), config.DefaultConfigDir())
}

func TestLoadTokenMissingFile(t *testing.T) {
	t.Setenv(config.EnvToken, "")
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)

	token, err := cfg.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.False(t, cfg.HasToken())
}

func TestLoadTokenRejectsEmptyAccessToken(t *testing.T) {
	t.Setenv(config.EnvToken, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.TokenFile), []byte(`{"token_type":"Bearer"}`), 0600))

	cfg, err := config.New(dir)
	require.NoError(t, err)

	_, err = cfg.LoadToken()
	assert.ErrorContains(t, err, "empty access_token")
}
