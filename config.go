package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the optional buscall TOML config file. Flags take
// precedence over every field.
type fileConfig struct {
	Destination    string   `toml:"destination"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	RetryErrors    []string `toml:"retry_errors"`
	LogLevel       string   `toml:"log_level"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
