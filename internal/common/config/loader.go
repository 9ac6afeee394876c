// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL            = "http://localhost:8000/api/v1"
	DefaultTimeout            = 30000
	DefaultExplanationTimeout = 15000
	DefaultHardCap            = 15
	DefaultTraceTTL           = 3600000
	DefaultTraceKeyPrefix     = "quiz:trace:"
)

// Load reads configs/config.yaml, merges config.{APP_ENVIRONMENT}.yaml and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("classifier.base_url", "")
	v.SetDefault("classifier.timeout", 0)
	v.SetDefault("classifier.explanation_timeout", 0)
	v.SetDefault("classifier.hard_cap", 0)
	v.SetDefault("classifier.health_preflight", true)
	v.SetDefault("classifier.include_comparison", true)
	v.SetDefault("trace.redis_enabled", false)
	v.SetDefault("trace.log_enabled", true)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("logging.level", "")
	v.SetDefault("server.metrics_address", "")
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// Unset variables expand to "" so the defaults below apply.
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values from the legacy environment names of the web frontend.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Classifier.BaseURL == "" {
		if val := os.Getenv("TAQNEEQ_API_URL"); val != "" {
			cfg.Classifier.BaseURL = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDR"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Logging.Level == "" && os.Getenv("TAQNEEQ_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "quiz-runner"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Classifier.BaseURL == "" {
		cfg.Classifier.BaseURL = DefaultBaseURL
	}
	cfg.Classifier.BaseURL = strings.TrimRight(cfg.Classifier.BaseURL, "/")
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = DefaultTimeout
	}
	if cfg.Classifier.ExplanationTimeout == 0 {
		cfg.Classifier.ExplanationTimeout = DefaultExplanationTimeout
	}
	if cfg.Classifier.HardCap == 0 {
		cfg.Classifier.HardCap = DefaultHardCap
	}
	if cfg.Classifier.UserAgent == "" {
		cfg.Classifier.UserAgent = "taqneeq-quiz/" + versionOrDev(cfg.App.Version)
	}

	if cfg.Trace.TTL == 0 {
		cfg.Trace.TTL = DefaultTraceTTL
	}
	if cfg.Trace.KeyPrefix == "" {
		cfg.Trace.KeyPrefix = DefaultTraceKeyPrefix
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

func versionOrDev(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.Classifier.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("classifier.base_url must be an absolute URL, got %q", cfg.Classifier.BaseURL)
	}
	if cfg.Classifier.HardCap < 1 {
		return fmt.Errorf("classifier.hard_cap must be at least 1")
	}
	if cfg.Classifier.Timeout < 0 || cfg.Classifier.ExplanationTimeout < 0 {
		return fmt.Errorf("classifier timeouts must not be negative")
	}
	if cfg.Trace.RedisEnabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when trace.redis_enabled is set")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
