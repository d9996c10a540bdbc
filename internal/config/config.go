// Package config holds the user-tunable settings: the table name inside
// the source file and the top-N cutoffs for the chart views. Values come
// from defaults, then an optional YAML file, then flags; out-of-range
// cutoffs are clamped into bounds rather than rejected.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTableName = "analysis_duckdb"

	MinTopNPairs     = 5
	MaxTopNPairs     = 50
	DefaultTopNPairs = 15

	MinTopNAccounts     = 10
	MaxTopNAccounts     = 200
	DefaultTopNAccounts = 30

	DefaultListenAddr = ":8080"
)

// Config is the full runtime configuration.
type Config struct {
	TableName    string `yaml:"table_name"`
	TopNPairs    int    `yaml:"top_n_pairs"`
	TopNAccounts int    `yaml:"top_n_accounts"`
	ListenAddr   string `yaml:"listen_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TableName:    DefaultTableName,
		TopNPairs:    DefaultTopNPairs,
		TopNAccounts: DefaultTopNAccounts,
		ListenAddr:   DefaultListenAddr,
	}
}

// Load reads a YAML config file over the defaults. A missing file is an
// error; callers that treat the file as optional should stat it first.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("Load: reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("Load: parsing config file %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize fills empty fields with defaults and clamps the cutoffs.
func (c *Config) Normalize() {
	if c.TableName == "" {
		c.TableName = DefaultTableName
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.TopNPairs == 0 {
		c.TopNPairs = DefaultTopNPairs
	}
	if c.TopNAccounts == 0 {
		c.TopNAccounts = DefaultTopNAccounts
	}
	c.TopNPairs = ClampPairs(c.TopNPairs)
	c.TopNAccounts = ClampAccounts(c.TopNAccounts)
}

// ClampPairs forces a service-pair cutoff into [MinTopNPairs, MaxTopNPairs].
func ClampPairs(n int) int {
	return clamp(n, MinTopNPairs, MaxTopNPairs)
}

// ClampAccounts forces an account cutoff into [MinTopNAccounts, MaxTopNAccounts].
func ClampAccounts(n int) int {
	return clamp(n, MinTopNAccounts, MaxTopNAccounts)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
