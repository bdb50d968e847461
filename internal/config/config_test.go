package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	ws := t.TempDir()
	cfg, err := Load(ws)
	require.NoError(t, err)

	assert.Equal(t, ws, cfg.WorkDir)
	assert.Equal(t, 8, cfg.Discovery.DynamicThreshold)
	assert.Equal(t, 80, cfg.Discovery.SearchThreshold)
	assert.True(t, cfg.Gate.Enabled)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	ws := t.TempDir()
	yaml := `
pools:
  "@docs": /srv/docs
  "@scratch": /srv/scratch
writable_pools:
  - "@scratch"
discovery:
  dynamic_threshold: 4
  search_threshold: 40
gate:
  enabled: false
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(ws, "codebox.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "/srv/docs", cfg.Pools["@docs"])
	assert.Equal(t, []string{"@scratch"}, cfg.WritablePools)
	assert.Equal(t, 4, cfg.Discovery.DynamicThreshold)
	assert.Equal(t, 40, cfg.Discovery.SearchThreshold)
	assert.False(t, cfg.Gate.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadBadYAML(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "codebox.yaml"), []byte("pools: [not: a: map"), 0o644))

	_, err := Load(ws)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CODEBOX_GATE_ENABLED", "false")
	t.Setenv("CODEBOX_LOG_LEVEL", "warn")
	t.Setenv("CODEBOX_POOLS", "@docs=/srv/docs,@extra=/srv/extra")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Gate.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/srv/docs", cfg.Pools["@docs"])
	assert.Equal(t, "/srv/extra", cfg.Pools["@extra"])
}

func TestValidateThresholdOrder(t *testing.T) {
	cfg := Default()
	cfg.Discovery.DynamicThreshold = 90
	cfg.Discovery.SearchThreshold = 80
	assert.Error(t, cfg.Validate())
}

func TestValidateWritablePoolMustExist(t *testing.T) {
	cfg := Default()
	cfg.WritablePools = []string{"@ghost"}
	assert.Error(t, cfg.Validate())

	cfg.Pools["@ghost"] = "/srv/ghost"
	assert.NoError(t, cfg.Validate())

	// prefix-insensitive matching
	cfg2 := Default()
	cfg2.Pools["scratch"] = "/srv/scratch"
	cfg2.WritablePools = []string{"@scratch"}
	assert.NoError(t, cfg2.Validate())
}

func TestStateDir(t *testing.T) {
	cfg := Default()
	cfg.WorkDir = "/work"
	assert.Equal(t, filepath.Join("/work", ".codebox"), cfg.StateDir())
}
