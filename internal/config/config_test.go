package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/bakerysim/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err) // an explicit path that does not exist is an error

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, "bakery.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 60, cfg.AutosaveSeconds)
	assert.Equal(t, 1000, cfg.TickMillis)
	assert.Equal(t, 1.0, cfg.Speed)
	assert.False(t, cfg.JITCooking)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"seed: 42\ndb_path: /tmp/test-bakery.db\napi_port: 9090\njit_cooking: true\n",
	), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "/tmp/test-bakery.db", cfg.DBPath)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.True(t, cfg.JITCooking)
	// Unset keys fall back to defaults.
	assert.Equal(t, 1000, cfg.TickMillis)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_port: 9090\n"), 0644))

	t.Setenv("BAKERY_API_PORT", "7070")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.APIPort)
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_port: 70000\n"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("tick_millis: 1\n"), 0644))
	_, err = config.Load(path)
	require.Error(t, err)
}
