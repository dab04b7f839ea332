package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 7878, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "https://api.cryptokitties.co/v3", cfg.API.BaseURL)
	assert.Equal(t, 20, cfg.API.TimeoutSeconds)
	assert.Equal(t, 150, cfg.API.PrefetchDelayMS)
	assert.Equal(t, 200, cfg.Crawl.DelayMS)
	assert.Equal(t, "development", cfg.Security.SecurityMode)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LINEAGE_PORT", "9000")
	t.Setenv("LINEAGE_API_BASE_URL", "http://localhost:8080")
	t.Setenv("LINEAGE_SECURITY_MODE", "production")
	t.Setenv("LINEAGE_API_TOKEN", "sekrit")

	cfg := LoadConfig()

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "production", cfg.Security.SecurityMode)
	assert.Equal(t, "sekrit", cfg.Security.APIToken)
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("LINEAGE_PORT", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 7878, cfg.Server.Port)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	t.Setenv("LINEAGE_PORT", "9000")

	path := filepath.Join(t.TempDir(), "lineage.yaml")
	data := []byte("server:\n  host: 0.0.0.0\napi:\n  prefetch_delay_ms: 50\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "file value wins")
	assert.Equal(t, 50, cfg.API.PrefetchDelayMS)
	assert.Equal(t, 9000, cfg.Server.Port, "unset file fields keep the environment value")
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}
