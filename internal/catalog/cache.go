// ABOUTME: Two-tier TTL cache in front of the catalog fetcher.
// ABOUTME: Keeps a process-local entry and a durable record, degrading to memory on storage errors.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389-research/mirrorview/internal/metrics"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/storage"
)

const (
	// DefaultTTL is how long a fetched catalog stays valid.
	DefaultTTL = 5 * time.Minute

	// DefaultKey is the durable record key.
	DefaultKey = "catalog"
)

// Where a cached entry came from.
const (
	SourceNetwork = "network"
	SourceDurable = "durable"
)

// record is the durable representation: {"data": [...], "timestamp": epoch-millis}.
type record struct {
	Data      models.Catalog `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

type entry struct {
	data      models.Catalog
	fetchedAt time.Time
	source    string
}

// CacheStatus describes the process-local entry.
type CacheStatus struct {
	Cached    bool
	Source    string
	FetchedAt time.Time
	Age       time.Duration
	Expired   bool
	Posts     int
}

// Cache serves the catalog from memory, then the durable store, then the network.
type Cache struct {
	fetcher Fetcher
	store   storage.Store
	key     string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	entry    *entry
	hydrated bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the validity window for both tiers.
func WithTTL(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithKey changes the durable record key.
func WithKey(key string) CacheOption {
	return func(c *Cache) { c.key = key }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// WithCacheMetrics records cache hits.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// NewCache wraps fetcher with a TTL cache. A nil store disables the durable tier.
func NewCache(fetcher Fetcher, store storage.Store, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		store:   store,
		key:     DefaultKey,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached catalog while it is within TTL, hydrating from the
// durable store once per session, and fetches otherwise. Fetch failures are
// returned as *FetchError and leave both tiers untouched.
func (c *Cache) Get(ctx context.Context) (models.Catalog, error) {
	c.mu.Lock()
	if c.entry != nil && c.fresh(c.entry.fetchedAt) {
		data := c.entry.data
		c.mu.Unlock()
		c.metrics.CacheHit("memory")
		return data, nil
	}
	hydrate := !c.hydrated
	c.hydrated = true
	c.mu.Unlock()

	if hydrate {
		if data, ok := c.hydrate(ctx); ok {
			return data, nil
		}
	}
	return c.fetch(ctx)
}

// Refresh fetches regardless of TTL. On failure the existing cache is kept.
func (c *Cache) Refresh(ctx context.Context) (models.Catalog, error) {
	c.mu.Lock()
	c.hydrated = true
	c.mu.Unlock()
	return c.fetch(ctx)
}

// Invalidate clears both tiers. The next Get always fetches.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.entry = nil
	c.hydrated = true
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.logger.Warn("durable cache delete failed", "key", c.key, "err", err)
	}
}

// Status reports on the process-local entry without touching storage.
func (c *Cache) Status() CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return CacheStatus{}
	}
	return c.statusOf(c.entry)
}

// Inspect reports on the durable record without adopting or purging it.
// It returns a zero status when no readable record exists.
func (c *Cache) Inspect(ctx context.Context) (CacheStatus, error) {
	if c.store == nil {
		return CacheStatus{}, nil
	}
	rec, err := c.load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return CacheStatus{}, nil
	}
	if err != nil {
		return CacheStatus{}, err
	}
	return c.statusOf(&entry{data: rec.Data, fetchedAt: time.UnixMilli(rec.Timestamp), source: SourceDurable}), nil
}

func (c *Cache) statusOf(e *entry) CacheStatus {
	age := c.now().Sub(e.fetchedAt)
	return CacheStatus{
		Cached:    true,
		Source:    e.source,
		FetchedAt: e.fetchedAt,
		Age:       age,
		Expired:   age >= c.ttl,
		Posts:     len(e.data),
	}
}

func (c *Cache) fresh(fetchedAt time.Time) bool {
	return c.now().Sub(fetchedAt) < c.ttl
}

func (c *Cache) hydrate(ctx context.Context) (models.Catalog, bool) {
	if c.store == nil {
		return nil, false
	}
	rec, err := c.load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, false
	case err != nil:
		var se *storage.StorageError
		if errors.As(err, &se) {
			c.logger.Warn("durable cache read failed", "key", c.key, "err", err)
			return nil, false
		}
		c.logger.Debug("discarding corrupt durable cache record", "key", c.key, "err", err)
		c.purge(ctx)
		return nil, false
	}

	fetchedAt := time.UnixMilli(rec.Timestamp)
	if !c.fresh(fetchedAt) {
		c.logger.Debug("discarding stale durable cache record", "key", c.key, "fetched_at", fetchedAt)
		c.purge(ctx)
		return nil, false
	}

	c.mu.Lock()
	// a concurrent fetch may have landed first
	if c.entry == nil || c.entry.fetchedAt.Before(fetchedAt) {
		c.entry = &entry{data: rec.Data, fetchedAt: fetchedAt, source: SourceDurable}
	}
	data := c.entry.data
	c.mu.Unlock()

	c.metrics.CacheHit("durable")
	return data, true
}

func (c *Cache) load(ctx context.Context) (*record, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if rec.Data == nil || rec.Timestamp <= 0 {
		return nil, errors.New("incomplete cache record")
	}
	return &rec, nil
}

func (c *Cache) purge(ctx context.Context) {
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.logger.Warn("durable cache delete failed", "key", c.key, "err", err)
	}
}

func (c *Cache) fetch(ctx context.Context) (models.Catalog, error) {
	data, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	fetchedAt := c.now()

	c.mu.Lock()
	c.entry = &entry{data: data, fetchedAt: fetchedAt, source: SourceNetwork}
	c.mu.Unlock()

	c.persist(ctx, data, fetchedAt)
	return data, nil
}

func (c *Cache) persist(ctx context.Context, data models.Catalog, fetchedAt time.Time) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(record{Data: data, Timestamp: fetchedAt.UnixMilli()})
	if err != nil {
		c.logger.Warn("encoding durable cache record failed", "err", err)
		return
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		c.logger.Warn("durable cache write failed, continuing in memory", "key", c.key, "err", err)
	}
}
