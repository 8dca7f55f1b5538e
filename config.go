package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source modes for the engine's reminder feed.
const (
	SourceStore = "store"
	SourceHTTP  = "http"
	SourceFile  = "file"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	DB     DBConfig     `koanf:"db"`
	Engine EngineConfig `koanf:"engine"`
	Notify NotifyConfig `koanf:"notify"`
	Push   PushConfig   `koanf:"push"`
	Source SourceConfig `koanf:"source"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

type EngineConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
}

type NotifyConfig struct {
	Icon string `koanf:"icon"`
}

type PushConfig struct {
	Enabled      bool   `koanf:"enabled"`
	RelayURL     string `koanf:"relay_url"` // defaults to this server
	Token        string `koanf:"token"`
	FCMServerKey string `koanf:"fcm_server_key"`
	FCMEndpoint  string `koanf:"fcm_endpoint"`
}

type SourceConfig struct {
	Mode string           `koanf:"mode"`
	HTTP SourceHTTPConfig `koanf:"http"`
	File SourceFileConfig `koanf:"file"`
}

type SourceHTTPConfig struct {
	URL     string        `koanf:"url"`
	Refresh time.Duration `koanf:"refresh"`
}

type SourceFileConfig struct {
	Path string `koanf:"path"`
}

func defaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"addr": "127.0.0.1:3000",
		},
		"db": map[string]interface{}{
			"path": "data.db",
		},
		"engine": map[string]interface{}{
			"poll_interval": "10s",
		},
		"notify": map[string]interface{}{
			"icon": "/static/checklist_16688556.png",
		},
		"push": map[string]interface{}{
			"enabled":        false,
			"relay_url":      "",
			"token":          "",
			"fcm_server_key": "",
			"fcm_endpoint":   "",
		},
		"source": map[string]interface{}{
			"mode": SourceStore,
			"http": map[string]interface{}{
				"url":     "",
				"refresh": "30s",
			},
			"file": map[string]interface{}{
				"path": "",
			},
		},
	}
}

// loadConfig builds the configuration from defaults, an optional YAML file
// and HABITFLOW_ environment overrides (double underscore separates
// nesting levels, e.g. HABITFLOW_SERVER__ADDR).
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("HABITFLOW_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "HABITFLOW_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is empty")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is empty")
	}
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("engine.poll_interval must be positive")
	}

	switch c.Source.Mode {
	case SourceStore:
	case SourceHTTP:
		// empty url falls back to this server
	case SourceFile:
		if c.Source.File.Path == "" {
			return fmt.Errorf("source.file.path is required for the file source")
		}
	default:
		return fmt.Errorf("unknown source mode: %s (supported: %s, %s, %s)",
			c.Source.Mode, SourceStore, SourceHTTP, SourceFile)
	}

	return nil
}

// selfURL is the base URL other components use to reach this server.
func (c *Config) selfURL() string {
	addr := c.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}
