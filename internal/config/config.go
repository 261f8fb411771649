// Package config loads the bridge configuration from a TOML file. The file
// path comes from the CONFIG_FILE environment variable and defaults to
// ./config.toml; the RCON password may additionally be supplied via
// RCON_PASSWORD so it can be kept out of the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is used when CONFIG_FILE is unset.
const DefaultPath = "config.toml"

// Config is the root of the configuration file.
type Config struct {
	Server   ServerConfig      `toml:"server"`
	Rcon     RconConfig        `toml:"rcon"`
	Telegram TelegramConfig    `toml:"telegram"`
	History  HistoryConfig     `toml:"history"`
	Webhooks map[string]string `toml:"webhooks"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string `toml:"address"`
}

// RconConfig configures the connection to the Minecraft server.
type RconConfig struct {
	// Address is the host:port of the RCON endpoint.
	Address string `toml:"address"`

	// Password is the rcon.password of the server. Overridden by the
	// RCON_PASSWORD environment variable when set.
	Password string `toml:"password"`

	// TimeoutSeconds bounds dialing and every socket read or write.
	// Default: 10.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// GameAddress is the host:port of the game itself, probed by the
	// /health endpoint and the Telegram /status command. Optional.
	GameAddress string `toml:"game_address"`
}

// TelegramConfig configures the optional Telegram bot trigger. The bot is
// disabled when Token is empty.
type TelegramConfig struct {
	Token        string  `toml:"token"`
	AllowedUsers []int64 `toml:"allowed_users"`
}

// HistoryConfig configures the command audit log. The log is disabled when
// Path is empty; use ":memory:" for a non-persistent database.
type HistoryConfig struct {
	Path string `toml:"path"`
}

// Path returns the configuration file location.
func Path() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if pw := os.Getenv("RCON_PASSWORD"); pw != "" {
		cfg.Rcon.Password = pw
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:8080"
	}
	if cfg.Rcon.TimeoutSeconds == 0 {
		cfg.Rcon.TimeoutSeconds = 10
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Rcon.Address == "" {
		return fmt.Errorf("rcon.address is required")
	}
	if c.Rcon.TimeoutSeconds < 0 {
		return fmt.Errorf("rcon.timeout_seconds must not be negative")
	}
	for name, command := range c.Webhooks {
		if name == "" {
			return fmt.Errorf("webhook with empty name")
		}
		if command == "" {
			return fmt.Errorf("webhook %q has an empty command", name)
		}
	}
	return nil
}

// RconTimeout returns the configured timeout as a duration.
func (c *Config) RconTimeout() time.Duration {
	return time.Duration(c.Rcon.TimeoutSeconds) * time.Second
}
