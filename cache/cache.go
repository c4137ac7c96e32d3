// Package cache is a short-lived in-process store in front of the bulk
// sheet reads. Concurrent misses for one key share a single fetch, and a
// failed fetch falls back to the last good value for that key.
package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Keys of the bulk views.
const (
	KeyListings    = "listings"
	KeyAgents      = "agents"
	KeyUsers       = "users"
	KeyLeaderboard = "leaderboard"
	KeyChat        = "chat"
	KeyArchive     = "archive"
)

// TTLs holds one lifetime per entity family.
type TTLs struct {
	Listings    time.Duration `yaml:"listings"`
	Agents      time.Duration `yaml:"agents"`
	Users       time.Duration `yaml:"users"`
	Leaderboard time.Duration `yaml:"leaderboard"`
	Chat        time.Duration `yaml:"chat"`
	Default     time.Duration `yaml:"default"`
}

func DefaultTTLs() TTLs {
	return TTLs{
		Listings:    5 * time.Minute,
		Agents:      10 * time.Minute,
		Users:       15 * time.Minute,
		Leaderboard: 2 * time.Minute,
		Chat:        30 * time.Second,
		Default:     time.Minute,
	}
}

// For returns the lifetime configured for key, falling back to Default.
func (t TTLs) For(key string) time.Duration {
	var d time.Duration
	switch key {
	case KeyListings:
		d = t.Listings
	case KeyAgents:
		d = t.Agents
	case KeyUsers:
		d = t.Users
	case KeyLeaderboard:
		d = t.Leaderboard
	case KeyChat:
		d = t.Chat
	}
	if d <= 0 {
		d = t.Default
	}
	return d
}

type entry struct {
	value   any
	expires time.Time
}

// generation identifies the invalidation epoch a fetch started in.
type generation struct {
	all uint64
	key uint64
}

type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	lastGood map[string]any
	epoch    uint64
	keyGen   map[string]uint64
	seen     map[string]struct{}

	group singleflight.Group
	ttls  TTLs
	now   func() time.Time
}

func New(ttls TTLs) *Cache {
	return &Cache{
		entries:  make(map[string]entry),
		lastGood: make(map[string]any),
		keyGen:   make(map[string]uint64),
		seen:     make(map[string]struct{}),
		ttls:     ttls,
		now:      time.Now,
	}
}

// TTL returns the configured lifetime for key.
func (c *Cache) TTL(key string) time.Duration {
	return c.ttls.For(key)
}

// GetOrFetch returns the cached value for key while it is younger than ttl.
// On a miss it runs fetch once for all concurrent callers; a ttl of zero
// uses the configured lifetime for key.
//
// The fetch is detached from ctx: a caller that gives up returns ctx.Err()
// while the backend call runs to completion for the others. A fetch that
// was in flight when the key was invalidated does not populate the cache.
// If the fetch fails and an earlier good value exists, that value is
// returned with a logged warning instead of the error.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}
	if ttl <= 0 {
		ttl = c.ttls.For(key)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		gen := c.generation(key)
		v, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		c.store(key, v, ttl, gen)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val, nil
		}
		if v, ok := c.stale(key); ok {
			log.Printf("Warning: serving stale %s after fetch error: %v", key, res.Err)
			return v, nil
		}
		return nil, res.Err
	}
}

// Fetch is the typed form of GetOrFetch using the configured lifetime.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrFetch(ctx, key, 0, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s holds %T, want %T", key, v, zero)
	}
	return typed, nil
}

// Invalidate drops key, its stale fallback and any fetch in flight for it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	delete(c.lastGood, key)
	c.keyGen[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll drops every entry. Stores call it after each mutation.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.seen))
	for k := range c.seen {
		keys = append(keys, k)
	}
	c.entries = make(map[string]entry)
	c.lastGood = make(map[string]any)
	c.epoch++
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
	}
}

// Sweep removes expired entries and returns how many it dropped. Reads check
// expiry on their own; this only bounds memory.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of live or not-yet-swept entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fresh(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) stale(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lastGood[key]
	return v, ok
}

func (c *Cache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[key] = struct{}{}
	return generation{all: c.epoch, key: c.keyGen[key]}
}

func (c *Cache) store(key string, v any, ttl time.Duration, gen generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != (generation{all: c.epoch, key: c.keyGen[key]}) {
		return
	}
	c.entries[key] = entry{value: v, expires: c.now().Add(ttl)}
	c.lastGood[key] = v
}
