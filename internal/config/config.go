// Package config handles loading and validation of hstsward configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const defaultListen = "127.0.0.1:8808"

// Config is the top-level configuration structure.
type Config struct {
	Proxy  ProxyConfig  `yaml:"proxy"`
	Policy PolicyConfig `yaml:"policy"`
}

// ProxyConfig defines the proxy listener and backing database.
type ProxyConfig struct {
	Listen   string `yaml:"listen"`
	Database string `yaml:"database"` // known-hosts file; empty resolves via XDG
}

// PolicyConfig defines enforcement exceptions.
type PolicyConfig struct {
	Exclude []string `yaml:"exclude"` // host glob patterns never upgraded
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hstsward", "config.yaml"), nil
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{Proxy: ProxyConfig{Listen: defaultListen}}
}

// Load reads and parses the config file. A missing file at the default
// location falls back to the built-in defaults; an explicitly named file
// must exist.
func Load(path string) (*Config, error) {
	implicit := false
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
		implicit = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if implicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Proxy.Listen == "" {
		cfg.Proxy.Listen = defaultListen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Proxy.Listen); err != nil {
		return fmt.Errorf("proxy.listen %q: %w", c.Proxy.Listen, err)
	}
	return nil
}

// DatabasePath resolves the known-hosts database location, defaulting to
// the user's XDG data directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Proxy.Database != "" {
		return c.Proxy.Database, nil
	}
	return xdg.DataFile("hstsward/known_hosts")
}
