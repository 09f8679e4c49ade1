// Package cache implements the stale-while-revalidate cache that mediates
// between remote fetches and callers. Entries are keyed by a logical query
// fingerprint; different keys are fully independent.
//
// Read policy: offline returns whatever is cached regardless of staleness
// (never an error while any cache exists); online always attempts a fresh
// fetch, falling back to the cached value when the fetch fails. Freshness
// is opportunistic, offline correctness is the guarantee.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/newssync/connectivity"
	"github.com/dmitrijs2005/newssync/internal/logging"
)

// ErrOffline is returned when there is no connectivity and no cached entry
// for the key.
var ErrOffline = errors.New("offline and no cached data")

// Fetcher produces a fresh value for a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Cache is a stale-while-revalidate cache over values of type T.
// Safe for concurrent use; concurrent revalidations of the same key are
// collapsed into one remote fetch.
type Cache[T any] struct {
	conn       connectivity.Monitor
	log        logging.Logger
	defaultTTL time.Duration

	mu      sync.Mutex
	entries map[string]entry[T]

	sf  singleflight.Group
	now func() time.Time
}

type entry[T any] struct {
	data     T
	storedAt time.Time
	ttl      time.Duration
}

// New constructs a cache. defaultTTL applies to entries stored without an
// explicit TTL; zero means entries never go stale (long-lived feeds).
func New[T any](conn connectivity.Monitor, defaultTTL time.Duration, log logging.Logger) *Cache[T] {
	if log == nil {
		log = logging.Nop()
	}
	return &Cache[T]{
		conn:       conn,
		log:        log,
		defaultTTL: defaultTTL,
		entries:    make(map[string]entry[T]),
		now:        time.Now,
	}
}

// Get resolves key per the stale-while-revalidate policy. The bool result
// reports whether the returned data is stale (cached beyond its TTL, or a
// fallback after a failed fetch).
func (c *Cache[T]) Get(ctx context.Context, key string, fetch Fetcher[T]) (T, bool, error) {
	cached, ok := c.lookup(key)

	if !c.conn.IsConnected(ctx) {
		if !ok {
			cacheMisses.WithLabelValues("offline").Inc()
			var zero T
			return zero, false, ErrOffline
		}
		cacheHits.WithLabelValues("offline").Inc()
		return cached.data, c.isStale(cached), nil
	}

	fresh, err, _ := c.sf.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err == nil {
		data := fresh.(T)
		c.Put(key, data)
		cacheHits.WithLabelValues("fresh").Inc()
		return data, false, nil
	}

	if ok {
		c.log.Warn(ctx, "remote fetch failed, serving cached data",
			"key", key, "error", err)
		cacheFallbacks.Inc()
		return cached.data, true, nil
	}

	cacheMisses.WithLabelValues("online").Inc()
	var zero T
	return zero, false, err
}

// Put stores data under key with the default TTL.
func (c *Cache[T]) Put(key string, data T) {
	c.PutTTL(key, data, c.defaultTTL)
}

// PutTTL stores data under key with an explicit TTL (zero = never stale).
func (c *Cache[T]) PutTTL(key string, data T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{data: data, storedAt: c.now(), ttl: ttl}
}

// Peek returns the cached value without consulting connectivity or the
// fetcher.
func (c *Cache[T]) Peek(key string) (T, bool) {
	e, ok := c.lookup(key)
	return e.data, ok
}

// Fresh returns the cached value only while it is within its TTL. Used for
// locally computed values, where stale entries should be recomputed rather
// than served.
func (c *Cache[T]) Fresh(key string) (T, bool) {
	e, ok := c.lookup(key)
	if !ok || c.isStale(e) {
		var zero T
		return zero, false
	}
	return e.data, true
}

// Invalidate drops one key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

func (c *Cache[T]) lookup(key string) (entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache[T]) isStale(e entry[T]) bool {
	if e.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.storedAt) > e.ttl
}
