package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3000", cfg.Server.Addr)
	assert.Equal(t, "data.db", cfg.DB.Path)
	assert.Equal(t, 10*time.Second, cfg.Engine.PollInterval)
	assert.Equal(t, SourceStore, cfg.Source.Mode)
	assert.False(t, cfg.Push.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":8080"
engine:
  poll_interval: 5s
source:
  mode: http
  http:
    url: "http://backend:3000"
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Engine.PollInterval)
	assert.Equal(t, SourceHTTP, cfg.Source.Mode)
	assert.Equal(t, "http://backend:3000", cfg.Source.HTTP.URL)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  path: from-file.db\n"), 0o644))

	t.Setenv("HABITFLOW_DB__PATH", "from-env.db")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.DB.Path)
}

func TestConfigValidation(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"empty addr":            func(c *Config) { c.Server.Addr = "" },
		"empty db path":         func(c *Config) { c.DB.Path = "" },
		"zero poll interval":    func(c *Config) { c.Engine.PollInterval = 0 },
		"unknown source mode":   func(c *Config) { c.Source.Mode = "carrier-pigeon" },
		"file source sans path": func(c *Config) { c.Source.Mode = SourceFile },
	} {
		cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err, name)
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestSelfURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:3000", (&Config{Server: ServerConfig{Addr: "127.0.0.1:3000"}}).selfURL())
	assert.Equal(t, "http://127.0.0.1:8080", (&Config{Server: ServerConfig{Addr: ":8080"}}).selfURL())
}
