package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tariffdesk/dutycalc/internal/refdata"
)

// LoadRemoteConfig builds the reference-data fetch configuration from viper
// with environment variable fallbacks. Precedence: viper config file, then
// DUTYCALC_* environment variables, then production defaults.
func LoadRemoteConfig() (refdata.Config, error) {
	cfg := refdata.DefaultConfig()

	if v := viper.GetString("remote.base_url"); v != "" {
		cfg.BaseURL = v
	} else if v := os.Getenv("DUTYCALC_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}

	if v := viper.GetString("remote.segments_path"); v != "" {
		cfg.SegmentsPath = v
	}
	if v := viper.GetString("remote.index_file"); v != "" {
		cfg.IndexFile = v
	}
	if v := viper.GetDuration("remote.timeout"); v > 0 {
		cfg.RequestTimeout = v
	}
	if v := viper.GetDuration("remote.freshness"); v > 0 {
		cfg.Freshness = v
	}
	if v := viper.GetInt("remote.retry.max_attempts"); v > 0 {
		cfg.Retry.MaxAttempts = v
	}
	if v := viper.GetDuration("remote.retry.initial_delay"); v > 0 {
		cfg.Retry.InitialDelay = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid remote configuration: %w", err)
	}
	return cfg, nil
}

// CachePath returns the shard cache database location: viper's cache.path,
// the DUTYCALC_CACHE_PATH environment variable, or the default under the
// user's data directory.
func CachePath() string {
	if v := viper.GetString("cache.path"); v != "" {
		return ExpandPath(v)
	}
	if v := os.Getenv("DUTYCALC_CACHE_PATH"); v != "" {
		return ExpandPath(v)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "dutycalc.db"
	}
	return filepath.Join(home, ".local", "share", "dutycalc", "cache.db")
}
