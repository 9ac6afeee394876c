// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Trace      TraceConfig      `mapstructure:"trace"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ClassifierConfig holds settings for the remote classification service and the session controller.
type ClassifierConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	Timeout            int    `mapstructure:"timeout"`             // milliseconds
	ExplanationTimeout int    `mapstructure:"explanation_timeout"` // milliseconds
	HardCap            int    `mapstructure:"hard_cap"`
	HealthPreflight    bool   `mapstructure:"health_preflight"`
	IncludeComparison  bool   `mapstructure:"include_comparison"`
	UserAgent          string `mapstructure:"user_agent"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c ClassifierConfig) RequestTimeout() time.Duration {
	return GetDuration(c.Timeout)
}

// ExplanationDeadline returns the explanation fetch timeout as a duration.
func (c ClassifierConfig) ExplanationDeadline() time.Duration {
	return GetDuration(c.ExplanationTimeout)
}

// TraceConfig controls where diagnostic trace records are mirrored.
type TraceConfig struct {
	RedisEnabled bool   `mapstructure:"redis_enabled"`
	TTL          int    `mapstructure:"ttl"` // milliseconds
	KeyPrefix    string `mapstructure:"key_prefix"`
	LogEnabled   bool   `mapstructure:"log_enabled"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig holds the optional operability server settings.
type ServerConfig struct {
	MetricsAddress string `mapstructure:"metrics_address"`
}
