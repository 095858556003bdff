package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 19920.0, cfg.Planning.FillRateVPH)
	assert.Equal(t, 24.0, cfg.Planning.CleanHours)
	assert.Equal(t, 120.0, cfg.Planning.WindowHours)
	assert.Equal(t, "smart-pack", cfg.Run.Strategy)
	assert.Equal(t, "lots.csv", cfg.Run.DataPath)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.False(t, cfg.Metrics.Enabled)

	start, err := cfg.Run.Start()
	require.NoError(t, err)
	assert.Equal(t, 2025, start.Year())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
planning:
  window_hours: 96
  chg_diff_hours: 6
run:
  strategy: lpt-pack
  start_time: "2025-03-01 06:00"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 96.0, cfg.Planning.WindowHours)
	assert.Equal(t, 6.0, cfg.Planning.ChgDiffHours)
	assert.Equal(t, 24.0, cfg.Planning.CleanHours, "unset keys keep defaults")
	assert.Equal(t, "lpt-pack", cfg.Run.Strategy)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FILLSCHED_PLANNING__CLEAN_HOURS", "12")
	t.Setenv("FILLSCHED_RUN__STRATEGY", "cfs-pack")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.Planning.CleanHours)
	assert.Equal(t, "cfs-pack", cfg.Run.Strategy)
}

func TestLoadRejectsInvalidPlanning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planning:\n  fill_rate_vph: -1\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadStartTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  start_time: yesterday\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteDefault(path))
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, Default(), cfg)
		})
	}
}
