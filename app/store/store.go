// Package store provides a durable, TTL-bounded key-value cache with an in-memory mirror.
// Every value is kept in the same envelope {"value": ..., "timestamp": unix-ms} and expires after TTL.
// Durability is best-effort: backend failures are logged and never returned to the caller,
// the mirror keeps same-process reads working. Mirror entries are dropped when another
// process changes the same key in the shared backend (see Cache.Watch).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
)

//go:generate moq -out mocks/backend.go -pkg mocks -skip-ensure -fmt goimports . Backend

// ErrNotFound returned by Backend.Load for missing keys
var ErrNotFound = errors.New("not found")

// DefaultTTL is the age after which cached entries are treated as absent
const DefaultTTL = 24 * time.Hour

// Backend is a durable byte store shared between processes
type Backend interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
	// Watch calls fn for every key in keys changed or removed by another process, until ctx is done
	Watch(ctx context.Context, keys []string, fn func(key string)) error
	Close() error
}

// Cache is a TTL-bounded cache with write-through to Backend. Thread safe
type Cache struct {
	backend     Backend
	ttl         time.Duration
	historySize int
	now         func() time.Time
	noExpire    map[string]bool

	mu     sync.Mutex
	mirror map[string]envelope
	gen    map[string]uint64 // bumped on every mirror change, guards load from caching stale reads
}

// Options for New
type Options struct {
	TTL         time.Duration    // default 24h
	HistorySize int              // capacity of the history list, 3-5, default 5
	Now         func() time.Time // clock, default time.Now
	NoExpire    []string         // extra keys never expiring, KeyAutoDownload is always included
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// New makes Cache on top of backend
func New(backend Backend, opts Options) *Cache {
	res := &Cache{
		backend:     backend,
		ttl:         opts.TTL,
		historySize: opts.HistorySize,
		now:         opts.Now,
		noExpire:    map[string]bool{KeyAutoDownload: true},
		mirror:      map[string]envelope{},
		gen:         map[string]uint64{},
	}
	if res.ttl <= 0 {
		res.ttl = DefaultTTL
	}
	switch {
	case res.historySize <= 0:
		res.historySize = 5
	case res.historySize < 3:
		res.historySize = 3
	case res.historySize > 5:
		res.historySize = 5
	}
	if res.now == nil {
		res.now = time.Now
	}
	for _, k := range opts.NoExpire {
		res.noExpire[k] = true
	}
	return res
}

// Put stores value under the key with the current timestamp. Never fails, persistence errors only logged
func (c *Cache) Put(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[WARN] can't marshal value for %s, %v", key, err)
		return
	}
	env := envelope{Value: data, Timestamp: c.now().UnixMilli()}

	c.mu.Lock()
	c.mirror[key] = env
	c.gen[key]++
	c.mu.Unlock()

	raw, err := json.Marshal(env)
	if err != nil {
		log.Printf("[WARN] can't marshal envelope for %s, %v", key, err)
		return
	}
	if err := c.backend.Save(key, raw); err != nil {
		log.Printf("[WARN] can't persist %s, %v", key, err)
	}
}

// Get reads value for the key into dest. Returns false for missing, expired and malformed entries,
// expired and malformed entries evicted from both mirror and backend.
func (c *Cache) Get(key string, dest any) bool {
	env, ok := c.load(key)
	if !ok {
		return false
	}

	if c.expired(key, env.Timestamp) {
		log.Printf("[DEBUG] %s expired, evicted", key)
		c.Clear(key)
		return false
	}

	if err := json.Unmarshal(env.Value, dest); err != nil {
		log.Printf("[WARN] malformed value for %s, evicted, %v", key, err)
		c.Clear(key)
		return false
	}
	return true
}

// Clear removes the key from mirror and backend. Safe to call for missing keys
func (c *Cache) Clear(key string) {
	c.Invalidate(key)
	if err := c.backend.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("[WARN] can't delete %s, %v", key, err)
	}
}

// Invalidate drops the mirror entry only, next Get re-reads the backend
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.mirror, key)
	c.gen[key]++
	c.mu.Unlock()
}

// Watch subscribes to changes made by other processes for all well-known keys and
// invalidates the mirror on each change. Non-blocking, the subscription ends with ctx.
func (c *Cache) Watch(ctx context.Context) error {
	if err := c.backend.Watch(ctx, Keys, func(key string) {
		log.Printf("[DEBUG] %s changed by another context, mirror dropped", key)
		c.Invalidate(key)
	}); err != nil {
		return fmt.Errorf("failed to watch store: %w", err)
	}
	return nil
}

// Sweep evicts all expired well-known keys and prunes expired history entries
func (c *Cache) Sweep() {
	for _, key := range Keys {
		if key == KeyHistory {
			c.History() // filters and re-persists
			continue
		}
		env, ok := c.load(key)
		if ok && c.expired(key, env.Timestamp) {
			log.Printf("[DEBUG] sweep %s", key)
			c.Clear(key)
		}
	}
}

// load gets envelope from mirror or backend, malformed backend data evicted.
// Backend data cached in the mirror only if nothing changed the key during the read
func (c *Cache) load(key string) (envelope, bool) {
	c.mu.Lock()
	env, ok := c.mirror[key]
	gen := c.gen[key]
	c.mu.Unlock()
	if ok {
		return env, true
	}

	raw, err := c.backend.Load(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[WARN] can't load %s, %v", key, err)
		}
		return envelope{}, false
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Timestamp == 0 {
		log.Printf("[WARN] malformed entry for %s, evicted", key)
		c.Clear(key)
		return envelope{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[key] != gen {
		if cur, ok := c.mirror[key]; ok {
			return cur, true // put during the read, newer value
		}
		return env, true
	}
	c.mirror[key] = env
	return env, true
}

func (c *Cache) expired(key string, ts int64) bool {
	if c.noExpire[key] {
		return false
	}
	return c.now().Sub(time.UnixMilli(ts)) > c.ttl
}
