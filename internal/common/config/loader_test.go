package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TAQNEEQ_API_URL", "REDIS_ADDR", "TAQNEEQ_DEBUG", "CLASSIFIER_HARD_CAP", "CLASSIFIER_BASE_URL"} {
		t.Setenv(key, "")
	}
}

// ==========================
// Loader Tests
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "app:\n  name: quiz-runner\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Classifier.BaseURL)
	assert.Equal(t, DefaultHardCap, cfg.Classifier.HardCap)
	assert.Equal(t, 30*time.Second, cfg.Classifier.RequestTimeout())
	assert.Equal(t, 15*time.Second, cfg.Classifier.ExplanationDeadline())
	assert.True(t, cfg.Classifier.HealthPreflight)
	assert.True(t, cfg.Classifier.IncludeComparison)
	assert.Equal(t, "taqneeq-quiz/dev", cfg.Classifier.UserAgent)
	assert.Equal(t, DefaultTraceKeyPrefix, cfg.Trace.KeyPrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadFromFile_ReadsValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
classifier:
  base_url: http://quiz.internal:9000/api/v1/
  timeout: 5000
  explanation_timeout: 2000
  hard_cap: 12
  health_preflight: false
  include_comparison: false
trace:
  redis_enabled: true
  ttl: 60000
database:
  redis:
    address: localhost:6379
logging:
  level: debug
  format: json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://quiz.internal:9000/api/v1", cfg.Classifier.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Classifier.RequestTimeout())
	assert.Equal(t, 2*time.Second, cfg.Classifier.ExplanationDeadline())
	assert.Equal(t, 12, cfg.Classifier.HardCap)
	assert.False(t, cfg.Classifier.HealthPreflight)
	assert.False(t, cfg.Classifier.IncludeComparison)
	assert.True(t, cfg.Trace.RedisEnabled)
	assert.Equal(t, 60000, cfg.Trace.TTL)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLASSIFIER_HARD_CAP", "10")
	t.Setenv("QUIZ_TEST_HOST", "quiz.example.org")
	path := writeConfig(t, "classifier:\n  base_url: https://${QUIZ_TEST_HOST}/api/v1\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Classifier.HardCap)
	assert.Equal(t, "https://quiz.example.org/api/v1", cfg.Classifier.BaseURL)
}

func TestLoadFromFile_LegacyAPIURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("TAQNEEQ_API_URL", "http://legacy:8000/api")
	path := writeConfig(t, "app:\n  name: x\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://legacy:8000/api", cfg.Classifier.BaseURL)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"relative base url", "classifier:\n  base_url: /api/v1\n"},
		{"negative hard cap", "classifier:\n  hard_cap: -1\n"},
		{"redis trace without address", "trace:\n  redis_enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
