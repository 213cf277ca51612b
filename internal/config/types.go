// Package config provides configuration loading for taxflow.
//
// Configuration is loaded using Viper, supporting a YAML config file and
// environment variable overrides, and is validated with struct tags.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (TAXFLOW_ prefix, e.g. TAXFLOW_STORE_PATH)
//  2. Config file given to LoadFromFile or named by TAXFLOW_CONFIG_PATH
//  3. ./taxflow.yaml
//  4. User config directory (e.g. ~/.config/taxflow/config.yaml on Linux)
//  5. [DefaultConfig] defaults
package config

import "time"

// Config represents the root configuration structure.
type Config struct {
	// Resources controls where LoadConstantsCommand payloads come from.
	Resources ResourcesConfig `mapstructure:"resources"`

	// Store configures the SQLite database for resources and run history.
	Store StoreConfig `mapstructure:"store"`

	// Output controls CLI output formatting.
	Output OutputConfig `mapstructure:"output"`

	// Server configures the HTTP surface.
	Server ServerConfig `mapstructure:"server"`

	// Log configures the slog handler installed by the CLI.
	Log LogConfig `mapstructure:"log"`
}

// ResourcesConfig configures resource fetching.
//
// Fetchers are tried in order: the store (when UseStore is set), BaseDir,
// then BaseURL. Successful fetches are cached for the life of the process.
type ResourcesConfig struct {
	// BaseDir is the directory relative resource paths resolve against.
	// Empty means the directory of the pipeline document.
	BaseDir string `mapstructure:"base_dir"`

	// BaseURL, if set, enables fetching resources over HTTP.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout bounds each HTTP fetch.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// MaxConcurrency bounds concurrent fetches while a pipeline is prepared.
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"min=1,max=64"`

	// UseStore reads resources saved with `taxflow resources put`.
	UseStore bool `mapstructure:"use_store"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" validate:"required"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Color enables lipgloss styling of text output.
	Color bool `mapstructure:"color"`
}

// ServerConfig configures `taxflow serve`.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr" validate:"required"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns a Config with sensible defaults that work without
// any config file.
func DefaultConfig() *Config {
	return &Config{
		Resources: ResourcesConfig{
			Timeout:        10 * time.Second,
			MaxConcurrency: 4,
		},
		Store: StoreConfig{
			Path: "taxflow.db",
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
