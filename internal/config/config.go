// Package config loads server configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Workshop WorkshopConfig `yaml:"workshop"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig covers the HTTP listener.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
}

// WorkshopConfig covers session parameters.
type WorkshopConfig struct {
	SessionBudgetSec int `yaml:"session_budget_sec"`
}

// NATSConfig enables the lifecycle publisher when URL is set.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig enables the workshop archive when URL is set.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// Load reads the YAML file at path (skipped when empty), then applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			LogLevel: "info",
		},
		Workshop: WorkshopConfig{
			SessionBudgetSec: 1800,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.Addr = getEnv("ADDR", cfg.Server.Addr)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)
	cfg.Workshop.SessionBudgetSec = getEnvAsInt("SESSION_BUDGET_SEC", cfg.Workshop.SessionBudgetSec)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)

	if cfg.Workshop.SessionBudgetSec <= 0 {
		return nil, fmt.Errorf("session budget must be positive, got %d", cfg.Workshop.SessionBudgetSec)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
