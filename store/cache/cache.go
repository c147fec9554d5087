// Package cache implements the timestamped response cache used by the
// client stores. An entry is served while it is younger than the cache's
// freshness window; otherwise the caller's fetcher runs and its result
// overwrites the entry.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Storage is where a cache persists its entries so that other stores over
// the same storage, in this process or another, can serve them.
// store.Driver satisfies it.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// Fetcher performs the network request for a cache miss.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Config holds the configuration for a cache.
type Config struct {
	Name    string           // Store name; prefixes every storage key
	TTL     time.Duration    // Freshness window
	Storage Storage          // Optional persistence
	Dedupe  bool             // Collapse concurrent fetches of one key (default: false)
	Now     func() time.Time // Clock (default: time.Now)
	Metrics Recorder         // Optional hit/miss recorder
	// FetchTimeout bounds a collapsed fetch, which no single caller's
	// context controls. Zero means no bound beyond the fetcher's own.
	FetchTimeout time.Duration
}

// Cache is a key → Entry map owned by a single store.
// There is no eviction: entries live until Clear.
//
// With Storage set, every entry is also written to its own storage item,
// and a key that is missing or stale in memory is looked up there before
// the fetcher runs. Clear writes a marker that makes older stored entries
// invisible to every cache over the same storage. Entries another cache
// already holds in memory stay until they go stale.
type Cache[T any] struct {
	name         string
	ttl          time.Duration
	storage      Storage
	now          func() time.Time
	metrics      Recorder
	dedupe       bool
	fetchTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]*Entry[T]

	// persistMu keeps memory and storage writes in the same order.
	persistMu sync.Mutex
	group     singleflight.Group
}

// New creates a cache. A zero TTL makes every entry stale immediately.
func New[T any](config Config) *Cache[T] {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Cache[T]{
		name:         config.Name,
		ttl:          config.TTL,
		storage:      config.Storage,
		now:          now,
		metrics:      metrics,
		dedupe:       config.Dedupe,
		fetchTimeout: config.FetchTimeout,
		entries:      make(map[string]*Entry[T]),
	}
}

// Get returns the entry stored under key regardless of its age. A key
// missing from memory is read from storage.
func (c *Cache[T]) Get(ctx context.Context, key string) (*Entry[T], bool) {
	if entry, ok := c.memoryEntry(key); ok {
		return entry, true
	}
	return c.readStored(ctx, key)
}

// Set replaces the entry under key with data stamped at the current time.
func (c *Cache[T]) Set(ctx context.Context, key string, data T) {
	entry := &Entry[T]{Data: data, Timestamp: c.now()}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	c.persist(ctx, key, entry)
}

// IsValid reports whether entry is younger than window.
func (c *Cache[T]) IsValid(entry *Entry[T], window time.Duration) bool {
	if entry == nil {
		return false
	}
	return c.now().Sub(entry.Timestamp) < window
}

// Lookup returns the cached data for key when it is still fresh.
func (c *Cache[T]) Lookup(ctx context.Context, key string) (T, bool) {
	entry, ok := c.Get(ctx, key)
	if ok && !c.IsValid(entry, c.ttl) {
		// Another process may have refreshed it.
		entry, ok = c.readStored(ctx, key)
	}
	if !ok || !c.IsValid(entry, c.ttl) {
		var zero T
		return zero, false
	}
	return entry.Data, true
}

// Fetch serves key from the cache while fresh. Otherwise it runs fetcher,
// stores the result unconditionally and returns it. Fetch errors are
// returned unchanged and leave the cache untouched.
//
// Without Dedupe, concurrent misses on one key each call fetcher and the
// last response to arrive wins the cache slot. With Dedupe they share one
// fetch, which keeps running when a waiter gives up on its own context.
func (c *Cache[T]) Fetch(ctx context.Context, key string, fetcher Fetcher[T]) (T, error) {
	if data, ok := c.Lookup(ctx, key); ok {
		c.metrics.Hit(c.name)
		return data, nil
	}
	c.metrics.Miss(c.name)

	if !c.dedupe {
		return c.refresh(ctx, key, fetcher)
	}

	results := c.group.DoChan(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.fetchTimeout)
			defer cancel()
		}
		return c.refresh(loadCtx, key, fetcher)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case result := <-results:
		if result.Shared {
			slog.DebugContext(ctx, "collapsed concurrent cache fetch", "cache", c.name, "key", key)
		}
		if result.Err != nil {
			return zero, result.Err
		}
		return result.Val.(T), nil
	}
}

func (c *Cache[T]) refresh(ctx context.Context, key string, fetcher Fetcher[T]) (T, error) {
	start := time.Now()
	data, err := fetcher(ctx)
	c.metrics.ObserveFetch(c.name, time.Since(start), err)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(ctx, key, data)
	return data, nil
}

// Clear drops every entry, e.g. after a mutating request.
func (c *Cache[T]) Clear(ctx context.Context) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[string]*Entry[T])
	c.mu.Unlock()

	if c.storage == nil {
		return
	}
	marker := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.storage.SetItem(ctx, c.clearedKey(), []byte(marker)); err != nil {
		slog.WarnContext(ctx, "failed to mark cache cleared", "cache", c.name, "error", err)
	}
	for _, key := range keys {
		if err := c.storage.RemoveItem(ctx, c.itemKey(key)); err != nil {
			slog.WarnContext(ctx, "failed to remove cache item", "cache", c.name, "error", err)
		}
	}
}

// Len returns the number of entries held in memory, fresh or stale.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[T]) itemKey(key string) string {
	return GenerateCacheKey(c.name, KeyHash(key))
}

func (c *Cache[T]) clearedKey() string {
	return GenerateCacheKey(c.name, "cleared")
}

func (c *Cache[T]) memoryEntry(key string) (*Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	copied := *entry
	return &copied, true
}

// readStored loads key from storage and keeps it in memory when it is newer
// than what memory holds. Unreadable items and items older than the last
// Clear count as missing.
func (c *Cache[T]) readStored(ctx context.Context, key string) (*Entry[T], bool) {
	if c.storage == nil {
		return nil, false
	}
	data, err := c.storage.GetItem(ctx, c.itemKey(key))
	if err != nil {
		return nil, false
	}
	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.WarnContext(ctx, "discarding unreadable cache item", "cache", c.name, "error", err)
		return nil, false
	}
	if cleared, ok := c.clearedAt(ctx); ok && !entry.Timestamp.After(cleared) {
		return nil, false
	}

	c.mu.Lock()
	if current, ok := c.entries[key]; !ok || entry.Timestamp.After(current.Timestamp) {
		stored := entry
		c.entries[key] = &stored
	}
	c.mu.Unlock()
	return &entry, true
}

func (c *Cache[T]) clearedAt(ctx context.Context) (time.Time, bool) {
	data, err := c.storage.GetItem(ctx, c.clearedKey())
	if err != nil {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// persist writes one entry to storage. Failures are logged only.
func (c *Cache[T]) persist(ctx context.Context, key string, entry *Entry[T]) {
	if c.storage == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		slog.WarnContext(ctx, "failed to encode cache item", "cache", c.name, "error", errors.WithStack(err))
		return
	}
	if err := c.storage.SetItem(ctx, c.itemKey(key), data); err != nil {
		slog.WarnContext(ctx, "failed to persist cache item", "cache", c.name, "error", err)
	}
}
