// Package config loads the daemon configuration from a YAML file.
// Environment variables in the file are expanded before parsing, so values
// like `trade_log: ${DATA_DIR}/trades.csv` work.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration.
type Config struct {
	ListenAddr       string `yaml:"listen_addr"`
	TradeLog         string `yaml:"trade_log"`
	MaxSnapshotDepth uint32 `yaml:"max_snapshot_depth"`
	LogLevel         string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:       ":9001",
		TradeLog:         "trades.csv",
		MaxSnapshotDepth: 50,
		LogLevel:         "info",
	}
}

// Load reads and parses the configuration file at path. Missing fields fall
// back to the defaults.
func Load(path string) (*Config, error) {
	if len(path) == 0 {
		path = os.Getenv("CONFIG_FILE")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	raw = []byte(os.ExpandEnv(string(raw)))

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
