// ABOUTME: Conformance tests run against every Store implementation.
// ABOUTME: Covers get/set/delete roundtrip, not-found handling, and factory selection.
package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/2389-research/mirrorview/internal/config"
)

func newRedisTestStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func allStores(t *testing.T) map[string]Store {
	t.Helper()
	tmpDir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(tmpDir, "files"))
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	sqliteStore, err := OpenSQLite(filepath.Join(tmpDir, "db", "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })
	redisStore, _ := newRedisTestStore(t)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
		"redis":  redisStore,
	}
}

func TestStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			value := []byte(`{"data":[],"timestamp":1700000000000}`)
			if err := store.Set(ctx, "mirrorview_data_cache", value); err != nil {
				t.Fatalf("Set error: %v", err)
			}
			got, err := store.Get(ctx, "mirrorview_data_cache")
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if !bytes.Equal(got, value) {
				t.Errorf("Get = %q, want %q", got, value)
			}

			// whole-record replacement
			if err := store.Set(ctx, "mirrorview_data_cache", []byte("v2")); err != nil {
				t.Fatalf("second Set error: %v", err)
			}
			got, _ = store.Get(ctx, "mirrorview_data_cache")
			if string(got) != "v2" {
				t.Errorf("expected replaced value, got %q", got)
			}

			if err := store.Delete(ctx, "mirrorview_data_cache"); err != nil {
				t.Fatalf("Delete error: %v", err)
			}
			if _, err := store.Get(ctx, "mirrorview_data_cache"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err := store.Delete(ctx, "nope"); err != nil {
				t.Errorf("Delete of missing key should succeed, got %v", err)
			}
		})
	}
}

func TestFileStoreEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()
	if err := store.Set(ctx, "../escape/attempt", []byte("x")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file inside store dir, got %d", len(entries))
	}
	if got, _ := store.Get(ctx, "../escape/attempt"); string(got) != "x" {
		t.Errorf("Get = %q", got)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")
	_ = store.Set(ctx, "k", value)
	value[0] = 'z'

	got, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("store aliased caller slice: %q", got)
	}
}

func TestRedisStorePrefixAndExpiry(t *testing.T) {
	store, mr := newRedisTestStore(t, WithRedisPrefix("test:"), WithRedisExpiry(time.Minute))
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if !mr.Exists("test:k") {
		t.Fatal("expected prefixed key in redis")
	}
	if ttl := mr.TTL("test:k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired key to be not found, got %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisTestStore(t)
	mr.Close()

	err := store.Set(context.Background(), "k", []byte("v"))
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if serr.Op != "set" {
		t.Errorf("Op = %q, want set", serr.Op)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.Cache.Path = filepath.Join(tmpDir, "cache")
	store, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("expected *FileStore, got %T", store)
	}

	cfg.Cache.Backend = config.BackendSQLite
	cfg.Cache.Path = filepath.Join(tmpDir, "cache.db")
	store, err = Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open(sqlite) error: %v", err)
	}
	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", store)
	}
	_ = store.Close()

	cfg.Cache.Backend = config.BackendNone
	store, _ = Open(ctx, cfg)
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", store)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.RedisAddr = mr.Addr()
	store, err = Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open(redis) error: %v", err)
	}
	if _, ok := store.(*RedisStore); !ok {
		t.Errorf("expected *RedisStore, got %T", store)
	}
	_ = store.Close()

	cfg.Cache.Backend = "etcd"
	if _, err := Open(ctx, cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}
