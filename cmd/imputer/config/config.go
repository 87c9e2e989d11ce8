// Package config assembles runtime configuration for the imputer CLI from
// environment variables, an optional .env file, and flags bound through
// viper.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"golang-imputation-service/pkg/logger"
)

// Config holds everything the CLI needs to run
type Config struct {
	DatabaseURL  string
	LogLevel     string
	LogFormat    string
	LogFile      string
	OutputFormat string
}

// Load builds the configuration. A .env file in the working directory is
// applied first when present; explicit environment variables win.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal case in
	// production
	_ = godotenv.Load()

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("output_format", "console")

	cfg := &Config{
		DatabaseURL:  viper.GetString("database_url"),
		LogLevel:     viper.GetString("log_level"),
		LogFormat:    viper.GetString("log_format"),
		LogFile:      viper.GetString("log_file"),
		OutputFormat: viper.GetString("output_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	switch c.OutputFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid output format: %s", c.OutputFormat)
	}
	return nil
}

// LoggerConfig converts the CLI settings into a logger configuration
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:  logger.Level(c.LogLevel),
		Format: logger.Format(c.LogFormat),
		File:   c.LogFile,
	}
}
