package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/logbook/internal/kv"
)

var sharedLocks = kv.NewKeyLocks()

// Cache is a process-wide, lazily loaded copy of the settings stored under
// one adapter key.
//
// Thread-safety: all methods are safe for concurrent use. Set and
// ResetDefaults serialize on the key's lock; Snapshot only takes a read lock.
type Cache struct {
	adapter kv.Adapter
	key     string
	locks   *kv.KeyLocks

	mu       sync.RWMutex
	loaded   bool
	snapshot Settings
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLocks sets the lock table used to serialize writes. Share it with the
// event logs of the same adapter to keep a single lock per key.
func WithLocks(locks *kv.KeyLocks) CacheOption {
	return func(c *Cache) {
		c.locks = locks
	}
}

// NewCache returns a cold cache over key.
func NewCache(adapter kv.Adapter, key string, opts ...CacheOption) *Cache {
	c := &Cache{
		adapter:  adapter,
		key:      key,
		locks:    sharedLocks,
		snapshot: Defaults(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the storage key of the settings object.
func (c *Cache) Key() string { return c.key }

// Loaded reports whether the cache is warm.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// EnsureLoaded reads and normalizes the stored settings the first time it
// succeeds; later calls return immediately. On an adapter error the cache
// stays cold and the error is returned, so the call can be retried.
func (c *Cache) EnsureLoaded(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}

	vals, err := c.adapter.Get(ctx, c.key)
	if err != nil {
		slog.Error("settings load failed", "key", c.key, "error", err)
		return fmt.Errorf("load settings: %w", err)
	}

	next := Defaults()
	if raw, ok := vals[c.key]; ok {
		next = Normalize(raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		// A concurrent Set or load won.
		return nil
	}
	c.snapshot = next
	c.loaded = true

	slog.Debug("settings loaded", "key", c.key, "settings", next)
	return nil
}

// Snapshot returns the cached settings, or ErrNotLoaded while the cache is
// cold.
func (c *Cache) Snapshot() (Settings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return Settings{}, ErrNotLoaded
	}
	return c.snapshot, nil
}

// Set normalizes next, persists it and, only once the write succeeded,
// makes it the cached snapshot. Returns the normalized settings.
func (c *Cache) Set(ctx context.Context, next Settings) (Settings, error) {
	next = next.Normalized()

	data, err := json.Marshal(next)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}

	unlock := c.locks.Lock(c.key)
	defer unlock()

	if err := c.adapter.Set(ctx, map[string]json.RawMessage{c.key: data}); err != nil {
		slog.Error("settings save failed", "key", c.key, "error", err)
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}

	c.store(next)
	slog.Info("settings saved", "key", c.key, "settings", next)
	return next, nil
}

// ResetDefaults is Set(ctx, Defaults()).
func (c *Cache) ResetDefaults(ctx context.Context) (Settings, error) {
	return c.Set(ctx, Defaults())
}

// Follow keeps the cache in step with writes to its key made through n by
// other handles. A removed key reads as Defaults. Call the returned function
// to stop following.
func (c *Cache) Follow(n kv.Notifier) (stop func()) {
	return n.OnChanged(func(changes kv.Changes, area string) {
		change, ok := changes[c.key]
		if !ok {
			return
		}

		next := Defaults()
		if change.NewValue != nil {
			next = Normalize(change.NewValue)
		}
		c.store(next)

		slog.Debug("settings changed", "key", c.key, "area", area)
	})
}

func (c *Cache) store(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
	c.loaded = true
}
