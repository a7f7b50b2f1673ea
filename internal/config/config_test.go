package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcreg/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultListenAddress, cfg.ListenAddress)
	assert.Equal(t, domain.DefaultSweepIntervalSeconds, cfg.SweepIntervalSeconds)
	assert.Equal(t, domain.DefaultStaleAfterSeconds, cfg.StaleAfterSeconds)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listenAddress: "127.0.0.1:4000"
sweepIntervalSeconds: 10
staleAfterSeconds: 30
rateLimit:
  enabled: true
  rps: 5
  burst: 10
observability:
  metricsEnabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.ListenAddress)
	assert.Equal(t, 10, cfg.SweepIntervalSeconds)
	assert.Equal(t, 30, cfg.StaleAfterSeconds)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, domain.DefaultObservabilityListenAddress, cfg.Observability.ListenAddress)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPortOverride(t *testing.T) {
	t.Setenv("PORT", "8085")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8085", cfg.ListenAddress)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.SweepIntervalSeconds = 0
	require.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.StaleAfterSeconds = -1
	require.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0
	require.Error(t, cfg.Validate())
}
