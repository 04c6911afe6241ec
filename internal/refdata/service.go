package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tariffdesk/dutycalc/internal/common"
	"github.com/tariffdesk/dutycalc/internal/model"
	"github.com/tariffdesk/dutycalc/internal/service"
)

// Service resolves classification records against the segmented remote
// database, backed by a persistent shard store and an in-memory working set.
// It implements service.RecordSource.
type Service struct {
	client *Client
	store  service.ShardStore
	cfg    Config

	mu        sync.RWMutex
	index     *model.SegmentIndex
	working   map[string]*model.Shard
	fetchedAt time.Time
}

// New creates a reference-data service over the given client and store.
func New(client *Client, store service.ShardStore, cfg Config) *Service {
	return &Service{
		client:  client,
		store:   store,
		cfg:     cfg,
		working: make(map[string]*model.Shard),
	}
}

// Initialize fetches the segment index and reconciles the shard store against
// its version stamp. A stamp change invalidates the whole cache generation.
// Calling Initialize again within the freshness window is a no-op.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.RLock()
	fresh := s.index != nil && time.Since(s.fetchedAt) < s.cfg.Freshness
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	// Fetched outside the lock. Concurrent initializers may both hit the
	// network; the second write wins and both observe a valid index.
	index, err := s.client.FetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize reference data: %w", err)
	}

	if err := s.store.SyncGeneration(ctx, index.Metadata.SegmentationDate); err != nil {
		return fmt.Errorf("failed to sync cache generation: %w", err)
	}

	s.mu.Lock()
	s.index = index
	s.working = make(map[string]*model.Shard)
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	slog.Info("Reference data initialized",
		"segments", len(index.Segments),
		"total_entries", index.Metadata.TotalEntries,
		"segmentation_date", index.Metadata.SegmentationDate,
		"hts_revision", index.Metadata.HTSRevision)
	return nil
}

// Lookup returns the record for an exact 8-digit code, or nil when the
// database has no such code.
func (s *Service) Lookup(ctx context.Context, code string) (*model.ClassificationRecord, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("classification code is required")
	}

	index := s.currentIndex()
	filename, ok := index.FileForCode(code)
	if !ok {
		return nil, nil
	}

	shard, err := s.loadShard(ctx, filename)
	if err != nil {
		return nil, err
	}
	if shard == nil {
		return nil, nil
	}

	for i := range shard.Entries {
		if shard.Entries[i].Code == code {
			return &shard.Entries[i], nil
		}
	}
	return nil, nil
}

// SearchByPrefix returns up to limit codes starting with prefix, sorted
// lexicographically. Single-digit prefixes union across every child shard,
// most granular segmentation first, stopping once limit matches are found.
func (s *Service) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]service.SearchResult, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	index := s.currentIndex()
	var results []service.SearchResult
	for _, filename := range index.FilesForPrefix(prefix) {
		if len(results) >= limit {
			break
		}
		shard, err := s.loadShard(ctx, filename)
		if err != nil {
			return nil, err
		}
		if shard == nil {
			continue
		}
		for i := range shard.Entries {
			if len(results) >= limit {
				break
			}
			if strings.HasPrefix(shard.Entries[i].Code, prefix) {
				results = append(results, service.SearchResult{
					Code:        shard.Entries[i].Code,
					Description: shard.Entries[i].Description,
				})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Code < results[j].Code
	})
	return results, nil
}

// HTSRevision returns the revision label of the loaded data set, or "" before
// initialization.
func (s *Service) HTSRevision() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return ""
	}
	return s.index.Metadata.HTSRevision
}

// LastUpdated returns the publication date of the loaded data set, or ""
// before initialization.
func (s *Service) LastUpdated() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return ""
	}
	return s.index.Metadata.LastUpdated
}

// Index returns the current segment index, or nil before initialization.
func (s *Service) Index() *model.SegmentIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Service) currentIndex() *model.SegmentIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// loadShard resolves one shard through the tiers: working set, persistent
// store, then network. Fetched shards are validated against their declared
// count and written through to both tiers. A nil shard means the remote store
// has no file for that prefix.
func (s *Service) loadShard(ctx context.Context, filename string) (*model.Shard, error) {
	s.mu.RLock()
	shard, ok := s.working[filename]
	s.mu.RUnlock()
	if ok {
		return shard, nil
	}

	cached, err := s.store.Get(ctx, filename)
	if err != nil {
		slog.Warn("Shard store read failed, falling back to network",
			"shard", filename, "error", err)
	} else if cached != nil {
		s.rememberShard(filename, cached)
		return cached, nil
	}

	fetched, err := s.client.FetchShard(ctx, filename)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, nil
	}
	if fetched.Count != len(fetched.Entries) {
		return nil, fmt.Errorf("%w: shard %s declares %d entries but holds %d",
			common.ErrShardMismatch, filename, fetched.Count, len(fetched.Entries))
	}

	if err := s.store.Put(ctx, filename, fetched); err != nil {
		// Cache writes are best-effort; the fetched shard still serves.
		slog.Warn("Failed to cache shard", "shard", filename, "error", err)
	}
	s.rememberShard(filename, fetched)
	return fetched, nil
}

func (s *Service) rememberShard(filename string, shard *model.Shard) {
	s.mu.Lock()
	s.working[filename] = shard
	s.mu.Unlock()
}
