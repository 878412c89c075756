// Package config provides configuration loading and structs for the kdbench tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the benchmark and export commands.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Verify  VerifyConfig  `yaml:"verify"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// DatasetConfig describes the synthetic dataset. The query set is the dataset
// itself followed by Queries-Size random points.
type DatasetConfig struct {
	Size    int    `yaml:"size"`
	Queries int    `yaml:"queries"`
	Dims    int    `yaml:"dims"`
	Modulus int    `yaml:"modulus"`
	Seed    uint64 `yaml:"seed"`
}

// OracleConfig selects the index the kd-tree is checked against.
type OracleConfig struct {
	Kind      string  `yaml:"kind"`
	Tolerance float64 `yaml:"tolerance"`
	CoverBase float32 `yaml:"cover_base"`
}

// VerifyConfig holds cross-check settings.
type VerifyConfig struct {
	Workers int `yaml:"workers"`
}

// StorageConfig holds the SQLite location of stored datasets.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	DatasetID    string `yaml:"dataset_id"`
	Table        string `yaml:"table"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, filepath.Dir(path))
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that no command can run with.
func (c *Config) Validate() error {
	switch {
	case c.Dataset.Size < 0:
		return fmt.Errorf("config: dataset.size must not be negative, got %d", c.Dataset.Size)
	case c.Dataset.Queries < c.Dataset.Size:
		return fmt.Errorf("config: dataset.queries (%d) must not be smaller than dataset.size (%d)", c.Dataset.Queries, c.Dataset.Size)
	case c.Dataset.Dims <= 0:
		return fmt.Errorf("config: dataset.dims must be positive, got %d", c.Dataset.Dims)
	case c.Oracle.Tolerance < 0:
		return fmt.Errorf("config: oracle.tolerance must not be negative, got %v", c.Oracle.Tolerance)
	}
	return nil
}

// expandPath resolves paths starting with "./" against configDir; other
// relative paths are kept relative to the working directory.
func expandPath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
