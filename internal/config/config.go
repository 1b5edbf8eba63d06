package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// Config represents the application configuration
type Config struct {
	// Voice library settings
	Voice struct {
		Root    string `yaml:"root"`
		Default string `yaml:"default"`
		Verify  bool   `yaml:"verify"`
	} `yaml:"voice"`

	// Synthesis settings
	Synthesis struct {
		Speed int `yaml:"speed"`
	} `yaml:"synthesis"`

	// Cache settings
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		Dir     string        `yaml:"dir"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	// Server settings
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	// Log settings
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Voice defaults
	cfg.Voice.Root = ""
	cfg.Voice.Default = "f1"
	cfg.Voice.Verify = true

	// Synthesis defaults
	cfg.Synthesis.Speed = 100

	// Cache defaults
	cfg.Cache.Enabled = false
	cfg.Cache.Dir = ""
	cfg.Cache.TTL = 0

	// Server defaults
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 50051

	// Log defaults
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SystemConfigPath is the last config file LoadWithFallback tries
const SystemConfigPath = "/etc/aquestalk/config.yaml"

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.aquestalkrc > /etc/aquestalk/config.yaml
//
// $AQUESTALK_ROOT, when set, replaces the voice root from any of them.
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		cfg, err := Load(explicitPath)
		if err != nil {
			return nil, err
		}
		return cfg.applyEnv(), nil
	}

	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".aquestalkrc"))
	}
	candidates = append(candidates, SystemConfigPath)

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if cfg, err := Load(path); err == nil {
			return cfg.applyEnv(), nil
		}
	}

	// No config file found, return defaults
	return DefaultConfig().applyEnv(), nil
}

// applyEnv lets the environment override file settings
func (c *Config) applyEnv() *Config {
	if root := os.Getenv(aquestalk.RootEnv); root != "" {
		c.Voice.Root = root
	}
	return c
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NewLogger builds a slog logger from the log section
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Log.Format)
	}
}
