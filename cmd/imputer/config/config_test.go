package config

import (
	"testing"

	"golang-imputation-service/pkg/logger"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "bad output format", mutate: func(c *Config) { c.OutputFormat = "csv" }, wantErr: true},
		{name: "json output valid", mutate: func(c *Config) { c.OutputFormat = "json" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: "info", LogFormat: "text", OutputFormat: "console"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json", LogFile: "/tmp/imputer.log"}

	lc := cfg.LoggerConfig()
	if lc.Level != logger.Level("debug") || lc.Format != logger.Format("json") || lc.File != "/tmp/imputer.log" {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
}
