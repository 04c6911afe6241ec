// Package cache persists downloaded shards in a local SQLite database so
// repeat lookups work offline and survive restarts.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tariffdesk/dutycalc/internal/common"
	"github.com/tariffdesk/dutycalc/internal/model"
)

// SQLiteStore implements service.ShardStore on a single-file SQLite database.
// Each shard is stored as one JSON payload keyed by filename, with a single
// generation stamp for the whole cache.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the shard cache at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite works best with one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS shards (
		filename TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		cached_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cache_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		segmentation_date TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get returns a cached shard, or nil when the filename has never been cached.
// A payload that no longer decodes reports ErrCacheCorrupted.
func (s *SQLiteStore) Get(ctx context.Context, filename string) (*model.Shard, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM shards WHERE filename = ?`, filename,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached shard %s: %w", filename, err)
	}

	var shard model.Shard
	if err := json.Unmarshal(payload, &shard); err != nil {
		return nil, fmt.Errorf("%w: shard %s: %v", common.ErrCacheCorrupted, filename, err)
	}
	return &shard, nil
}

// Put stores a shard, replacing any previous payload for the same filename.
func (s *SQLiteStore) Put(ctx context.Context, filename string, shard *model.Shard) error {
	payload, err := json.Marshal(shard)
	if err != nil {
		return fmt.Errorf("failed to encode shard %s: %w", filename, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shards (filename, payload, cached_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(filename) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, filename, payload)
	if err != nil {
		return fmt.Errorf("failed to cache shard %s: %w", filename, err)
	}
	return nil
}

// SyncGeneration compares the stored generation stamp against the live
// index's segmentationDate. On mismatch every cached shard is deleted in the
// same transaction that records the new stamp, so the cache is never left
// half-invalidated.
func (s *SQLiteStore) SyncGeneration(ctx context.Context, segmentationDate string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin generation sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRowContext(ctx,
		`SELECT segmentation_date FROM cache_meta WHERE id = 1`,
	).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read cache generation: %w", err)
	}

	if stored != segmentationDate {
		res, err := tx.ExecContext(ctx, `DELETE FROM shards`)
		if err != nil {
			return fmt.Errorf("failed to invalidate cache generation: %w", err)
		}
		if stored != "" {
			dropped, _ := res.RowsAffected()
			slog.Info("Cache generation changed, invalidated cached shards",
				"previous", stored,
				"current", segmentationDate,
				"dropped", dropped)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_meta (id, segmentation_date, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			segmentation_date = excluded.segmentation_date,
			updated_at = excluded.updated_at
	`, segmentationDate)
	if err != nil {
		return fmt.Errorf("failed to record cache generation: %w", err)
	}

	return tx.Commit()
}

// Filenames lists every cached shard key.
func (s *SQLiteStore) Filenames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename FROM shards ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached shards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan shard filename: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
