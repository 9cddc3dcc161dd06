// Package config defines the simulator's operational configuration: the
// market and tournament to run, logging, the optional results dashboard,
// and where completed runs are archived. Loaded from a YAML file with
// CDA_* environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"cda-sim/pkg/types"
)

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the optional resultsapi HTTP server.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"required_if=Enabled true,omitempty,gt=0"`
}

// StoreConfig sets where completed tournament summaries are archived.
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// Config is the simulator's top-level configuration, maps directly to the
// YAML file structure.
type Config struct {
	Tournament types.TournamentConfig `mapstructure:"tournament" validate:"required"`
	Logging    LoggingConfig          `mapstructure:"logging"`
	Dashboard  DashboardConfig        `mapstructure:"dashboard"`
	Store      StoreConfig            `mapstructure:"store" validate:"required"`
}

var validate = validator.New()

// Load reads config from a YAML file at path, allowing CDA_-prefixed
// environment variables to override any field.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field's validator tags — a declarative replacement
// for the teacher's hand-rolled if-chain, same concern: an unknown
// strategy name or out-of-range value fails here per spec.md §7's
// ConfigError handling.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
