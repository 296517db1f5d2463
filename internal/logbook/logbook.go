package logbook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/logbook/internal/config"
	"github.com/roach88/logbook/internal/eventlog"
	"github.com/roach88/logbook/internal/kv"
	"github.com/roach88/logbook/internal/kv/pebblekv"
	"github.com/roach88/logbook/internal/settings"
	"github.com/roach88/logbook/internal/store"
)

// Log names used in process logs and metric labels.
const (
	AuditName = "audit"
	TraceName = "trace"
)

// Logbook is an opened store with its audit log, debug trace and settings.
type Logbook struct {
	cfg     config.Config
	adapter kv.Adapter
	closeFn func() error

	audit    *eventlog.Log
	trace    *eventlog.Gate
	settings *settings.Cache

	stopFollow func()
}

type options struct {
	now     func() time.Time
	ids     eventlog.IDGenerator
	adapter kv.Adapter
}

// Option configures Open.
type Option func(*options)

// WithClock sets the entry timestamp source of both logs.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator sets the entry id source of both logs.
func WithIDGenerator(g eventlog.IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// WithAdapter uses a caller-owned adapter instead of opening the configured
// backend. Close does not close it.
func WithAdapter(a kv.Adapter) Option {
	return func(o *options) {
		o.adapter = a
	}
}

// Open validates cfg, opens its storage backend, builds the logs and loads
// the settings.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Logbook, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{now: time.Now, ids: eventlog.UUIDv7Generator{}}
	for _, opt := range opts {
		opt(&o)
	}

	adapter, closeFn := o.adapter, func() error { return nil }
	if adapter == nil {
		var err error
		adapter, closeFn, err = openBackend(cfg)
		if err != nil {
			return nil, err
		}
	}

	lb := build(cfg, adapter, closeFn, lockScope(cfg, adapter, o.adapter != nil), o)

	if err := lb.settings.EnsureLoaded(ctx); err != nil {
		lb.Close()
		return nil, err
	}
	if n, ok := adapter.(kv.Notifier); ok {
		lb.stopFollow = lb.settings.Follow(n)
	}

	slog.Debug("logbook opened",
		"backend", cfg.Storage.Backend,
		"path", cfg.StoragePath(),
		"namespace", cfg.Keys.Namespace,
	)
	return lb, nil
}

// lockScope names the storage adapter writes land in, so every handle on
// it in this process shares one lock table. A file-backed store opened here
// is identified by its path since each Open yields a new adapter value.
func lockScope(cfg config.Config, adapter kv.Adapter, external bool) any {
	if external || cfg.Storage.Backend == config.BackendMemory {
		return adapter
	}
	path := cfg.StoragePath()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return cfg.Storage.Backend + ":" + path
}

func build(cfg config.Config, adapter kv.Adapter, closeFn func() error, scope any, o options) *Logbook {
	locks := kv.LocksFor(scope)
	keys := cfg.Keys

	audit := eventlog.New(adapter, keys.AuditLog(),
		eventlog.WithName(AuditName),
		eventlog.WithDefaultMax(eventlog.DefaultAuditMax),
		eventlog.WithClock(o.now),
		eventlog.WithIDGenerator(o.ids),
		eventlog.WithLocks(locks),
	)
	trace := eventlog.New(adapter, keys.DebugTrace(),
		eventlog.WithName(TraceName),
		eventlog.WithDefaultMax(eventlog.DefaultTraceMax),
		eventlog.WithClock(o.now),
		eventlog.WithIDGenerator(o.ids),
		eventlog.WithLocks(locks),
	)

	return &Logbook{
		cfg:      cfg,
		adapter:  adapter,
		closeFn:  closeFn,
		audit:    audit,
		trace:    eventlog.NewGate(trace, keys.DebugTraceEnabled()),
		settings: settings.NewCache(adapter, keys.Settings(), settings.WithLocks(locks)),
	}
}

// openBackend opens the adapter named by cfg.Storage.Backend.
func openBackend(cfg config.Config) (kv.Adapter, func() error, error) {
	path := cfg.StoragePath()

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), func() error { return nil }, nil

	case config.BackendPebble:
		db, err := pebblekv.Open(pebblekv.Options{DataDir: path, NoSync: cfg.Storage.NoSync})
		if err != nil {
			return nil, nil, fmt.Errorf("open pebble backend: %w", err)
		}
		return db, db.Close, nil

	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		s, err := store.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return s, s.Close, nil
	}
}

// Close stops following settings changes and closes the adapter if Open
// opened it. Safe to call more than once.
func (lb *Logbook) Close() error {
	if lb.stopFollow != nil {
		lb.stopFollow()
		lb.stopFollow = nil
	}
	if lb.closeFn == nil {
		return nil
	}
	err := lb.closeFn()
	lb.closeFn = nil
	return err
}

// Config returns the configuration the logbook was opened with.
func (lb *Logbook) Config() config.Config { return lb.cfg }

// Adapter returns the underlying storage adapter.
func (lb *Logbook) Adapter() kv.Adapter { return lb.adapter }

// Audit returns the audit log.
func (lb *Logbook) Audit() *eventlog.Log { return lb.audit }

// Trace returns the gated debug trace.
func (lb *Logbook) Trace() *eventlog.Gate { return lb.trace }

// Settings returns the settings cache. It is loaded by Open.
func (lb *Logbook) Settings() *settings.Cache { return lb.settings }
