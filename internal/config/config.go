// Package config loads host configuration for the CLI and the HTTP
// surface. The engine itself takes no configuration; everything here wires
// capabilities around it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProcessConfig is one allow-listed command for run tasks.
type ProcessConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Config is the host configuration document.
type Config struct {
	LogLevel string `yaml:"log_level"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	// Redis enables the cross-process event bus when Addr is set;
	// otherwise runs use the in-memory bus.
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Processes map[string]ProcessConfig `yaml:"processes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.HTTP.Addr = ":8080"
	return cfg
}

// Load reads a YAML config file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
