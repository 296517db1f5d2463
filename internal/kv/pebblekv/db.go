package pebblekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/roach88/logbook/internal/kv"
)

// Area is the storage area name reported in change notifications.
const Area = "pebble"

// Options configures the Pebble adapter.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// NoSync skips the WAL fsync on commit. Writes survive a process crash
	// but may be lost on power failure.
	NoSync bool
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
}

// DB wraps a Pebble database as a kv.Adapter and kv.Notifier.
type DB struct {
	inner *pebble.DB
	write *pebble.WriteOptions
	subs  kv.Subscribers

	// mu orders writes so old values read for notifications match what the
	// batch replaced.
	mu sync.Mutex
}

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebblekv: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("pebblekv: open %s: %w", opts.DataDir, err)
	}

	write := pebble.Sync
	if opts.NoSync {
		write = pebble.NoSync
	}
	return &DB{inner: inner, write: write}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Get implements kv.Adapter.
func (db *DB) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, ok, err := db.get(k)
		if err != nil {
			return nil, fmt.Errorf("get %q: %w", k, err)
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// Set implements kv.Adapter.
func (db *DB) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if len(items) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	b := db.inner.NewBatch()
	changes := make(kv.Changes, len(items))
	for k, v := range items {
		old, _, err := db.get(k)
		if err != nil {
			b.Close()
			db.mu.Unlock()
			return fmt.Errorf("set %q: %w", k, err)
		}
		if err := b.Set([]byte(k), v, nil); err != nil {
			b.Close()
			db.mu.Unlock()
			return fmt.Errorf("set %q: %w", k, err)
		}
		changes[k] = kv.Change{OldValue: old, NewValue: kv.Clone(v)}
	}
	err := b.Commit(db.write)
	b.Close()
	db.mu.Unlock()
	if err != nil {
		return fmt.Errorf("set: commit: %w", err)
	}

	db.subs.Publish(changes, Area)
	return nil
}

// Remove implements kv.Adapter.
func (db *DB) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	b := db.inner.NewBatch()
	changes := make(kv.Changes, len(keys))
	for _, k := range keys {
		old, ok, err := db.get(k)
		if err != nil {
			b.Close()
			db.mu.Unlock()
			return fmt.Errorf("remove %q: %w", k, err)
		}
		if !ok {
			continue
		}
		if err := b.Delete([]byte(k), nil); err != nil {
			b.Close()
			db.mu.Unlock()
			return fmt.Errorf("remove %q: %w", k, err)
		}
		changes[k] = kv.Change{OldValue: old}
	}
	var err error
	if len(changes) > 0 {
		err = b.Commit(db.write)
	}
	b.Close()
	db.mu.Unlock()
	if err != nil {
		return fmt.Errorf("remove: commit: %w", err)
	}

	db.subs.Publish(changes, Area)
	return nil
}

// OnChanged implements kv.Notifier.
func (db *DB) OnChanged(h kv.Handler) func() {
	return db.subs.Add(h)
}

// get returns a copy of the value stored at key.
func (db *DB) get(key string) (json.RawMessage, bool, error) {
	v, closer, err := db.inner.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return kv.Clone(v), true, nil
}

var (
	_ kv.Adapter  = (*DB)(nil)
	_ kv.Notifier = (*DB)(nil)
)
