// Package config provides YAML-based configuration loading for Sprintyard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Sprintyard configuration, loaded from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Notify NotifyConfig `yaml:"notify"`
	Sweep  SweepConfig  `yaml:"sweep"`
	GitHub GitHubConfig `yaml:"github"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DBConfig holds relational store settings. Driver selects between a MySQL
// server and a local SQLite file.
type DBConfig struct {
	Driver   string `yaml:"driver"` // "mysql" or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite only
}

// NotifyConfig holds chat notification settings. Empty tokens disable the
// corresponding adapter.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// SweepConfig controls the scheduled sprint overdue sweep.
type SweepConfig struct {
	Schedule string `yaml:"schedule"` // 5-field cron expression
}

// GitHubConfig holds settings for exporting defects as GitHub issues.
// Empty token disables export.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration suitable for local use without a config
// file: a SQLite store next to the binary.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Path == "" {
		c.DB.Path = "sprintyard.db"
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = "0 6 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.DB.Driver {
	case "mysql":
		if c.DB.Database == "" {
			errs = append(errs, "db.database is required for the mysql driver")
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("db.driver must be mysql or sqlite, got %q", c.DB.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.GitHub.Token != "" && (c.GitHub.Owner == "" || c.GitHub.Repo == "") {
		errs = append(errs, "github.owner and github.repo are required when github.token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}
