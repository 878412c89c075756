package config

import "runtime"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Dataset.Size == 0 {
		cfg.Dataset.Size = 50000
	}
	if cfg.Dataset.Queries == 0 {
		cfg.Dataset.Queries = 2 * cfg.Dataset.Size
	}
	if cfg.Dataset.Dims == 0 {
		cfg.Dataset.Dims = 2
	}
	if cfg.Dataset.Modulus == 0 {
		cfg.Dataset.Modulus = 1000
	}
	if cfg.Dataset.Seed == 0 {
		cfg.Dataset.Seed = 1
	}
	if cfg.Oracle.Kind == "" {
		cfg.Oracle.Kind = "gonum"
	}
	if cfg.Oracle.Tolerance == 0 {
		cfg.Oracle.Tolerance = 1e-6
	}
	if cfg.Verify.Workers == 0 {
		cfg.Verify.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./kdtree.db"
	}
	if cfg.Storage.Table == "" {
		cfg.Storage.Table = "points"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
