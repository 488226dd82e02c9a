package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found.
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "fundament.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "refdata", cfg.Data.RefdataDir)
	assert.Equal(t, 30, cfg.EDGAR.MaxStaleDays)
	assert.Contains(t, cfg.EDGAR.UserAgent, "@")
	assert.Equal(t, "https://api.polygon.io", cfg.Polygon.BaseURL)
	assert.Empty(t, cfg.Polygon.Key)
	assert.Equal(t, 4, cfg.Normalize.Concurrency)
	assert.InDelta(t, 0.85, cfg.Fuzzy.Threshold, 0.001)
	assert.InDelta(t, 0.03, cfg.Fuzzy.Margin, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chtemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/fundament
edgar:
  max_stale_days: 7
fuzzy:
  threshold: 0.9
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/fundament", cfg.Store.DatabaseURL)
	assert.Equal(t, 7, cfg.EDGAR.MaxStaleDays)
	assert.InDelta(t, 0.9, cfg.Fuzzy.Threshold, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// Untouched keys keep their defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.03, cfg.Fuzzy.Margin, 0.001)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("FUNDAMENT_STORE_DRIVER", "postgres")
	t.Setenv("FUNDAMENT_POLYGON_KEY", "pk_test")
	t.Setenv("FUNDAMENT_EDGAR_MAX_STALE_DAYS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "pk_test", cfg.Polygon.Key)
	assert.Equal(t, 3, cfg.EDGAR.MaxStaleDays)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := chtemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("store: [not a map"), 0o644))

	_, err := Load()
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense", Format: "json"})
	require.Error(t, err)
}
