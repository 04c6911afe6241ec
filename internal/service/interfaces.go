// Package service defines the contracts between the calculation engine, the
// reference-data service, and the local cache layer.
package service

import (
	"context"
	"time"

	"github.com/tariffdesk/dutycalc/internal/model"
)

// ShardStore is the persistence contract for downloaded shards, keyed by
// shard filename. Implementations version the whole cache as one generation:
// a version-stamp mismatch invalidates every key at once, never partially.
type ShardStore interface {
	// Get returns a cached shard, or nil when the key is absent.
	Get(ctx context.Context, filename string) (*model.Shard, error)
	// Put persists a shard. Writes are independent and idempotent.
	Put(ctx context.Context, filename string, shard *model.Shard) error
	// SyncGeneration compares the stored version stamp against the live
	// index's segmentationDate and clears the cache wholesale on mismatch.
	SyncGeneration(ctx context.Context, segmentationDate string) error
	// Filenames lists every cached shard key.
	Filenames(ctx context.Context) ([]string, error)
	Close() error
}

// SearchResult is one autocomplete hit.
type SearchResult struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RecordSource resolves classification records. The calculation engine
// depends on this interface rather than on the concrete reference-data
// service.
type RecordSource interface {
	// Lookup returns the record for an exact 8-digit code, or nil (not an
	// error) when no record exists.
	Lookup(ctx context.Context, code string) (*model.ClassificationRecord, error)
	// SearchByPrefix returns up to limit records whose code starts with
	// prefix, lexicographically sorted.
	SearchByPrefix(ctx context.Context, prefix string, limit int) ([]SearchResult, error)
}

// RetryOptions configures retry behavior for remote fetches.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
