package main

import (
	"fmt"

	"github.com/tariffdesk/dutycalc/internal/cache"
	"github.com/tariffdesk/dutycalc/internal/config"
	"github.com/tariffdesk/dutycalc/internal/refdata"
)

// buildRefdata wires the standard stack: remote client, SQLite shard cache,
// and the reference-data service over both. The caller closes the store.
func buildRefdata() (*refdata.Service, *cache.SQLiteStore, error) {
	cfg, err := config.LoadRemoteConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.NewSQLiteStore(config.CachePath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open shard cache: %w", err)
	}

	client := refdata.NewClient(cfg)
	return refdata.New(client, store, cfg), store, nil
}
