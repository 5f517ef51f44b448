package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, env := range []string{"COPPER_API_KEY", "COPPER_USER_EMAIL", "CLAUDE_PROXY_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "ZEEBE_ADDRESS"} {
		t.Setenv(env, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimal = `
camunda:
  broker_address: localhost:26500
copper:
  api_key: ${TEST_COPPER_KEY}
  user_email: bot@example.com
`

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("TEST_COPPER_KEY", "secret")
	cfg, err := LoadFromFile(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Copper.APIKey)
	assert.Equal(t, DefaultCopperBaseURL, cfg.Copper.BaseURL)
	assert.Equal(t, 180, cfg.Copper.RatePerMinute)
	assert.Equal(t, 65.0, cfg.Matching.Threshold)
	assert.Equal(t, 80.0, cfg.Matching.FilterThreshold)
	assert.Equal(t, 10.0, cfg.Matching.AmbiguityDelta)
	assert.Equal(t, 5, cfg.Matching.MaxCandidates)
	assert.Equal(t, BackendMemory, cfg.Confirmation.Backend)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.Confirmation.TTL))
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Empty(t, cfg.Intent.ProxyURL)
}

func TestLoadFromFile_ExplicitZeros(t *testing.T) {
	t.Setenv("TEST_COPPER_KEY", "secret")
	cfg, err := LoadFromFile(writeConfig(t, minimal+`
matching:
  threshold: 0
  native_boost: 0
  ambiguity_delta: 0
confirmation:
  ttl: 0
`))
	require.NoError(t, err)

	assert.Zero(t, cfg.Matching.Threshold)
	assert.Zero(t, cfg.Matching.NativeBoost)
	assert.Zero(t, cfg.Matching.AmbiguityDelta)
	assert.Zero(t, cfg.Confirmation.TTL)
	assert.Equal(t, 70.0, cfg.Matching.PhoneticGate)
	assert.Equal(t, 80.0, cfg.Matching.FilterThreshold)
}

func TestLoadFromFile_EnvOverridesAndWorkers(t *testing.T) {
	path := writeConfig(t, minimal+`
workers:
  crm-resolve-entity:
    enabled: false
    max_jobs_active: 2
`)
	t.Setenv("TEST_COPPER_KEY", "secret")
	t.Setenv("CLAUDE_PROXY_URL", "http://proxy:8000")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy:8000", cfg.Intent.ProxyURL)

	wc := GetWorkerConfig(cfg, "crm-resolve-entity")
	assert.False(t, wc.Enabled)
	assert.Equal(t, 2, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.False(t, IsWorkerEnabled(cfg, "crm-resolve-entity"))
	assert.True(t, IsWorkerEnabled(cfg, "crm-handle-message"))
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing broker", "copper:\n  api_key: k\n  user_email: e\n"},
		{"missing copper key", "camunda:\n  broker_address: b\ncopper:\n  user_email: e\n"},
		{"unknown backend", minimal + "confirmation:\n  backend: etcd\n"},
		{"redis without address", minimal + "confirmation:\n  backend: redis\n"},
		{"threshold out of range", minimal + "matching:\n  threshold: 140\n"},
		{"too few candidates", minimal + "matching:\n  max_candidates: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			t.Setenv("TEST_COPPER_KEY", "secret")
			_, err := LoadFromFile(path)
			assert.Error(t, err)
		})
	}
}
