package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blizzardd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7331", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 16*1024*1024, cfg.MaxStreamBytes)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	path := writeConfigFile(t, `
addr: "0.0.0.0:9000"
idle_timeout: 5s
max_stream_bytes: 4096
rate_limit:
  enabled: true
  bytes_per_sec: 1000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 4096, cfg.MaxStreamBytes)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, int64(1000), cfg.RateLimit.BytesPerSec)
	assert.Equal(t, int64(1000), cfg.RateLimit.Burst, "burst defaults to bytes_per_sec")
}

func TestLoadRejectsRateLimitWithoutBudget(t *testing.T) {
	path := writeConfigFile(t, `
rate_limit:
  enabled: true
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "addr: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}
