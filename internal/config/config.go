// Package config loads server settings from an optional YAML file with
// environment variable overrides. Precedence: env > file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPassword = "admin123"
	DefaultDBPath   = "./webhooks.db"
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 5000
	DefaultLogFile  = "./hookman.log"
)

// Config holds the server configuration
type Config struct {
	// Password is the shared login secret. May be a bcrypt hash
	// ($2a$/$2b$/$2y$ prefix), in which case login compares with bcrypt.
	Password string `yaml:"password"`
	DBPath   string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogFile  string `yaml:"log_file"`
}

// Load builds the configuration from defaults, the optional YAML file at
// path (skipped when path is empty), and environment variables:
// WEBHOOK_PASSWORD, DATABASE_PATH, HOST, PORT, HOOKMAN_LOG_FILE.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Password: DefaultPassword,
		DBPath:   DefaultDBPath,
		Host:     DefaultHost,
		Port:     DefaultPort,
		LogFile:  DefaultLogFile,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if v := os.Getenv("WEBHOOK_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("HOOKMAN_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port out of range: %d", cfg.Port)
	}

	return cfg, nil
}

// UsesDefaultPassword reports whether the login secret is still the
// shipped default. The serve command warns about this at startup.
func (c *Config) UsesDefaultPassword() bool {
	return c.Password == DefaultPassword
}
