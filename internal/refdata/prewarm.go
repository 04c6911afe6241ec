package refdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tariffdesk/dutycalc/internal/common"
)

// PrewarmProgress reports one shard handled during a pre-warm pass.
type PrewarmProgress struct {
	Chapter  string
	Filename string
	// Cached is true when the shard was already present in the store.
	Cached bool
}

// Prewarm downloads the shards for the given chapters into the persistent
// store, highest-priority chapter first. Shards already cached are skipped;
// failures on individual shards are logged and skipped so one bad segment
// cannot stall the rest of the queue. The progress callback, when non-nil,
// fires once per shard.
func (s *Service) Prewarm(ctx context.Context, chapters []string, progress func(PrewarmProgress)) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	index := s.currentIndex()

	cached := make(map[string]bool)
	names, err := s.store.Filenames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached shards: %w", err)
	}
	for _, name := range names {
		cached[name] = true
	}

	handled := make(map[string]bool)
	var fetched, skipped int
	for _, chapter := range chapters {
		for _, filename := range index.FilesForChapter(chapter) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if handled[filename] {
				continue
			}
			handled[filename] = true

			if cached[filename] {
				skipped++
				if progress != nil {
					progress(PrewarmProgress{Chapter: chapter, Filename: filename, Cached: true})
				}
				continue
			}

			shard, err := s.loadShard(ctx, filename)
			if err != nil {
				common.LogError(err, "Failed to pre-warm shard",
					common.Fields{"chapter": chapter, "shard": filename})
				continue
			}
			if shard != nil {
				fetched++
			}
			if progress != nil {
				progress(PrewarmProgress{Chapter: chapter, Filename: filename})
			}
		}
	}

	slog.Info("Pre-warm complete",
		"chapters", len(chapters),
		"fetched", fetched,
		"already_cached", skipped)
	return nil
}

// PrewarmShardCount returns how many distinct shards a pre-warm over the
// given chapters would touch. Used to size progress reporting.
func (s *Service) PrewarmShardCount(ctx context.Context, chapters []string) (int, error) {
	if err := s.Initialize(ctx); err != nil {
		return 0, err
	}
	index := s.currentIndex()
	seen := make(map[string]bool)
	for _, chapter := range chapters {
		for _, filename := range index.FilesForChapter(chapter) {
			seen[filename] = true
		}
	}
	return len(seen), nil
}
