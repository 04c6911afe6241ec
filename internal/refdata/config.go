// Package refdata fetches, caches, and searches the segmented classification
// database published on the remote blob store.
package refdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/tariffdesk/dutycalc/internal/common"
	"github.com/tariffdesk/dutycalc/internal/service"
)

// Config holds the remote store location and fetch behavior.
type Config struct {
	// BaseURL is the root of the published data set.
	BaseURL string
	// SegmentsPath is the directory under BaseURL holding shard files.
	SegmentsPath string
	// IndexFile is the segment index filename within SegmentsPath.
	IndexFile string
	// RequestTimeout bounds each individual fetch attempt.
	RequestTimeout time.Duration
	// Freshness is how long a fetched segment index stays trusted before
	// Initialize refreshes it.
	Freshness time.Duration
	// Retry configures the per-request retry budget.
	Retry service.RetryOptions
}

// DefaultConfig returns the production fetch configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://cs410033fffad325ccb.blob.core.windows.net/$web/TCalc/data",
		SegmentsPath:   "tariff-segments",
		IndexFile:      "segment-index.json",
		RequestTimeout: 30 * time.Second,
		Freshness:      24 * time.Hour,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Validate checks that the config can produce usable URLs.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: remote base URL", common.ErrMissingConfig)
	}
	if c.IndexFile == "" {
		return fmt.Errorf("%w: segment index file", common.ErrMissingConfig)
	}
	return nil
}

func (c Config) indexURL() string {
	return c.segmentURL(c.IndexFile)
}

func (c Config) segmentURL(filename string) string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if c.SegmentsPath != "" {
		return base + "/" + strings.Trim(c.SegmentsPath, "/") + "/" + filename
	}
	return base + "/" + filename
}
