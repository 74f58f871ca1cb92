// Package config loads application configuration from a YAML file and
// CHED-prefixed environment variables, with defaults suitable for local
// development.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	APIKey    string `mapstructure:"api_key"`
	UploadDir string `mapstructure:"upload_dir"`
	Release   bool   `mapstructure:"release"`
}

// ModelConfig selects and tunes the language model provider.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, anthropic
	Name        string  `mapstructure:"name"`     // provider-specific model id, empty for default
	Temperature float64 `mapstructure:"temperature"`
	APIKey      string  `mapstructure:"api_key"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	Path        string `mapstructure:"path"`
	CatalogPath string `mapstructure:"catalog_path"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text, zerolog
}

// Default returns the baseline local-development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8000",
			UploadDir: "uploads",
		},
		Model: ModelConfig{
			Provider:    "openai",
			Temperature: 0.3,
		},
		Store: StoreConfig{
			Path: "ched.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given file (or config.yaml in the
// working directory when empty) and the CHED_* environment. A missing file
// is not an error; the defaults plus environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers defaults so environment-only keys resolve without a
// config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.api_key", cfg.Server.APIKey)
	v.SetDefault("server.upload_dir", cfg.Server.UploadDir)
	v.SetDefault("server.release", cfg.Server.Release)
	v.SetDefault("model.provider", cfg.Model.Provider)
	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.temperature", cfg.Model.Temperature)
	v.SetDefault("model.api_key", cfg.Model.APIKey)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.catalog_path", cfg.Store.CatalogPath)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}
