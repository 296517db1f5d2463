package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/logbook/internal/kv"
)

// Default caps and the range every effective cap is clamped into.
const (
	DefaultAuditMax = 5000
	DefaultTraceMax = 2000
	MinCap          = 100
	MaxCap          = 50000
)

// sharedLocks serializes logs built without WithLocks, so two handles on the
// same key still never interleave their read-modify-writes.
var sharedLocks = kv.NewKeyLocks()

// Log is a capped, append-only event log stored under one adapter key.
//
// Thread-safety model:
//   - mutations (Append, Import, Trim, Clear) hold the key lock for the
//     whole read-modify-write
//   - reads (List, ExportJSON, Count) take no lock and see whichever
//     complete collection the adapter returns
type Log struct {
	adapter    kv.Adapter
	key        string
	name       string
	defaultMax int
	capMin     int
	capMax     int
	now        func() time.Time
	ids        IDGenerator
	locks      *kv.KeyLocks
}

// Option configures a Log.
type Option func(*Log)

// WithDefaultMax sets the cap used when AppendOptions.Max is zero.
//
// Default: DefaultAuditMax
func WithDefaultMax(n int) Option {
	return func(l *Log) {
		l.defaultMax = n
	}
}

// WithCapRange sets the range effective caps are clamped into.
//
// Default: [MinCap, MaxCap]
func WithCapRange(lo, hi int) Option {
	return func(l *Log) {
		l.capMin = lo
		l.capMax = hi
	}
}

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithIDGenerator sets the entry id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Log) {
		l.ids = g
	}
}

// WithLocks sets the lock table used to serialize writes.
func WithLocks(locks *kv.KeyLocks) Option {
	return func(l *Log) {
		l.locks = locks
	}
}

// WithName sets the label used in logs and metrics. Defaults to the key.
func WithName(name string) Option {
	return func(l *Log) {
		l.name = name
	}
}

// New returns a Log storing its entries under key.
func New(adapter kv.Adapter, key string, opts ...Option) *Log {
	l := &Log{
		adapter:    adapter,
		key:        key,
		name:       key,
		defaultMax: DefaultAuditMax,
		capMin:     MinCap,
		capMax:     MaxCap,
		now:        time.Now,
		ids:        UUIDv7Generator{},
		locks:      sharedLocks,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.capMin < 1 {
		l.capMin = 1
	}
	if l.capMax < l.capMin {
		l.capMax = l.capMin
	}

	return l
}

// Key returns the storage key of the log.
func (l *Log) Key() string { return l.key }

// Name returns the log's label.
func (l *Log) Name() string { return l.name }

// AppendOptions tunes a single Append call.
type AppendOptions struct {
	// Max overrides the log's default cap. Zero means the default. The
	// effective cap is always clamped into the log's cap range.
	Max int
}

// Append stamps drafts with an id and a shared timestamp, appends them in
// order and drops the oldest entries beyond the cap, all in one write.
// Returns the stored count after capping.
//
// An empty drafts slice writes nothing and returns the current count.
func (l *Log) Append(ctx context.Context, drafts []Draft, opts AppendOptions) (int, error) {
	unlock := l.locks.Lock(l.key)
	defer unlock()

	return l.appendLocked(ctx, drafts, opts)
}

// AppendOne is Append for a single draft.
func (l *Log) AppendOne(ctx context.Context, d Draft, opts AppendOptions) (int, error) {
	return l.Append(ctx, []Draft{d}, opts)
}

func (l *Log) appendLocked(ctx context.Context, drafts []Draft, opts AppendOptions) (int, error) {
	current, err := l.load(ctx)
	if err != nil {
		return 0, l.fail("append", err)
	}

	if len(drafts) == 0 {
		return len(current), nil
	}

	capacity := l.effectiveMax(opts.Max)
	ts := l.now().UnixMilli()

	merged := make([]Entry, 0, len(current)+len(drafts))
	merged = append(merged, current...)
	for _, d := range drafts {
		merged = append(merged, d.stamp(l.ids.Generate(), ts))
	}

	evicted := 0
	if len(merged) > capacity {
		evicted = len(merged) - capacity
		merged = merged[evicted:]
	}

	if err := l.save(ctx, merged); err != nil {
		return 0, l.fail("append", err)
	}

	entriesAppended.WithLabelValues(l.name).Add(float64(len(drafts)))
	if evicted > 0 {
		entriesEvicted.WithLabelValues(l.name).Add(float64(evicted))
	}

	slog.Debug("entries appended",
		"log", l.name,
		"count", len(drafts),
		"evicted", evicted,
		"total", len(merged),
	)

	return len(merged), nil
}

// Import replaces the collection with the entries of an export document,
// keeping their ids and timestamps. Entries missing an id or ts get fresh
// ones. The result is capped like Append. Returns the stored count.
func (l *Log) Import(ctx context.Context, data []byte, opts AppendOptions) (int, error) {
	entries, err := decodeExport(data)
	if err != nil {
		return 0, err
	}

	unlock := l.locks.Lock(l.key)
	defer unlock()

	return l.importLocked(ctx, entries, opts)
}

func (l *Log) importLocked(ctx context.Context, entries []Entry, opts AppendOptions) (int, error) {
	ts := l.now().UnixMilli()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = l.ids.Generate()
		}
		if entries[i].Ts == 0 {
			entries[i].Ts = ts
		}
	}

	if capacity := l.effectiveMax(opts.Max); len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}

	if err := l.save(ctx, entries); err != nil {
		return 0, l.fail("import", err)
	}

	slog.Info("entries imported", "log", l.name, "total", len(entries))
	return len(entries), nil
}

// Clear removes every entry. Clearing an empty log is a no-op.
func (l *Log) Clear(ctx context.Context) error {
	unlock := l.locks.Lock(l.key)
	defer unlock()

	if err := l.adapter.Remove(ctx, l.key); err != nil {
		return l.fail("clear", err)
	}
	entriesStored.WithLabelValues(l.name).Set(0)

	slog.Debug("log cleared", "log", l.name)
	return nil
}

// Count returns the number of stored entries.
func (l *Log) Count(ctx context.Context) (int, error) {
	entries, err := l.load(ctx)
	if err != nil {
		return 0, l.fail("count", err)
	}
	return len(entries), nil
}

// effectiveMax resolves a requested cap against the default and the range.
func (l *Log) effectiveMax(requested int) int {
	if requested == 0 {
		requested = l.defaultMax
	}
	return clampInt(requested, l.capMin, l.capMax)
}

// load returns the stored collection, oldest first. A missing key is an
// empty log; so is a value that is not an entry array.
func (l *Log) load(ctx context.Context) ([]Entry, error) {
	vals, err := l.adapter.Get(ctx, l.key)
	if err != nil {
		return nil, err
	}

	raw, ok := vals[l.key]
	if !ok || len(raw) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		slog.Warn("stored log is not an entry array, reading as empty",
			"log", l.name,
			"key", l.key,
			"error", err,
		)
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// save writes the whole collection under the log key.
func (l *Log) save(ctx context.Context, entries []Entry) error {
	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if err := l.adapter.Set(ctx, map[string]json.RawMessage{l.key: data}); err != nil {
		return err
	}
	entriesStored.WithLabelValues(l.name).Set(float64(len(entries)))
	return nil
}

// fail counts and wraps a persistence error.
func (l *Log) fail(op string, err error) error {
	operationErrors.WithLabelValues(l.name, op).Inc()
	slog.Error("log operation failed",
		"log", l.name,
		"op", op,
		"error", err,
	)
	return fmt.Errorf("%s: %w", op, err)
}

// encodeEntries marshals entries as a JSON array, never "null".
func encodeEntries(entries []Entry) (json.RawMessage, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return data, nil
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
