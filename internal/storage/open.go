// ABOUTME: Factory selecting a Store implementation from configuration.
// ABOUTME: Maps the cache backend name to file, sqlite, redis, or memory storage.
package storage

import (
	"context"
	"fmt"

	"github.com/2389-research/mirrorview/internal/config"
)

// Open builds the durable store named by cfg.Cache.Backend. The "none"
// backend returns an in-memory store so callers never handle a nil Store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return NewMemoryStore(), nil
	case config.BackendFile, "":
		path, err := cfg.CachePath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path)
	case config.BackendSQLite:
		path, err := cfg.CachePath()
		if err != nil {
			return nil, err
		}
		return OpenSQLite(path)
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
