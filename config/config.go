// Package config loads buffer pool sizing and storage location
// parameters from a YAML file, falling back to sane defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/coredb/bufferpool/storage/disk"
)

// PoolConfig configures a buffer pool and its backing disk manager.
type PoolConfig struct {
	PoolSize      int    `mapstructure:"pool_size"`
	PageSize      int    `mapstructure:"page_size"`
	DBPath        string `mapstructure:"db_path"`
	DirectoryPath string `mapstructure:"directory_path"`
}

// Defaults returns the configuration used when no file is supplied.
func Defaults() PoolConfig {
	return PoolConfig{
		PoolSize:      128,
		PageSize:      disk.PageSize,
		DBPath:        "corepool.db",
		DirectoryPath: "corepool.dir",
	}
}

// Load reads a YAML file at path, filling in any field it omits from
// Defaults().
func Load(path string) (PoolConfig, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("pool_size", cfg.PoolSize)
	v.SetDefault("page_size", cfg.PageSize)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("directory_path", cfg.DirectoryPath)

	if err := v.ReadInConfig(); err != nil {
		return PoolConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return PoolConfig{}, fmt.Errorf("unmarshal config %s: %w", path, err)
	}

	return cfg, nil
}
