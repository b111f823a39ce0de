package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	// run from a directory without a config file so defaults apply
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 90*time.Second, cfg.PresenceGrace)
	assert.Equal(t, 100, cfg.ChatHistoryLimit)
	assert.Equal(t, 10, cfg.QueueLimit)
	assert.Equal(t, "memory", cfg.Repository)
	assert.Equal(t, "liveroom:", cfg.RedisKeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.RelayTimeout)
}

func TestLoad_ReadsEnvSpecificFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")

	writeFile(t, dir, "config/config.test.yaml", "mode: debug\nport: 9999\nqueue_limit: 3\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 3, cfg.QueueLimit)
	// untouched keys fall back to defaults
	assert.Equal(t, "memory", cfg.Repository)
}
