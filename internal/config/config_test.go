package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRemoteConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadRemoteConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.BaseURL)
	assert.Equal(t, "segment-index.json", cfg.IndexFile)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Freshness)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
}

func TestLoadRemoteConfigPrecedence(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("DUTYCALC_BASE_URL", "https://env.example.com/data")
	cfg, err := LoadRemoteConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/data", cfg.BaseURL)

	// Viper settings outrank the environment.
	viper.Set("remote.base_url", "https://viper.example.com/data")
	viper.Set("remote.timeout", "10s")
	cfg, err = LoadRemoteConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://viper.example.com/data", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestCachePath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Run("env override", func(t *testing.T) {
		t.Setenv("DUTYCALC_CACHE_PATH", "/tmp/dutycalc/test.db")
		assert.Equal(t, "/tmp/dutycalc/test.db", CachePath())
	})

	t.Run("viper outranks env", func(t *testing.T) {
		t.Setenv("DUTYCALC_CACHE_PATH", "/tmp/dutycalc/test.db")
		viper.Set("cache.path", "/var/lib/dutycalc/cache.db")
		t.Cleanup(viper.Reset)
		assert.Equal(t, "/var/lib/dutycalc/cache.db", CachePath())
	})

	t.Run("default under home", func(t *testing.T) {
		path := CachePath()
		assert.Equal(t, "cache.db", filepath.Base(path))
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/absolute/path", ExpandPath("/absolute/path"))
	assert.Equal(t, "", ExpandPath(""))

	t.Setenv("DUTYCALC_TEST_DIR", "/srv/data")
	assert.Equal(t, "/srv/data/cache.db", ExpandPath("$DUTYCALC_TEST_DIR/cache.db"))
}
