package eventlog

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Gate puts a persisted on/off switch in front of a Log.
//
// State machine: Disabled (initial, also when the flag key is missing) and
// Enabled. While disabled, appends are dropped without any write. Disabling
// stores the flag and an empty collection in a single adapter write, so a
// disabled gate never has entries behind it.
//
// Every gate operation runs under the wrapped log's key lock, which means a
// concurrent SetEnabled(false) cannot slip between an append's flag check
// and its write.
type Gate struct {
	log     *Log
	flagKey string
}

// NewGate wraps log with a switch stored under flagKey.
func NewGate(log *Log, flagKey string) *Gate {
	return &Gate{log: log, flagKey: flagKey}
}

// Log returns the wrapped log.
func (g *Gate) Log() *Log { return g.log }

// FlagKey returns the storage key of the switch.
func (g *Gate) FlagKey() string { return g.flagKey }

// IsEnabled reads the persisted flag. A missing or non-boolean flag reads
// as disabled.
func (g *Gate) IsEnabled(ctx context.Context) (bool, error) {
	enabled, err := g.isEnabled(ctx)
	if err != nil {
		return false, g.log.fail("is-enabled", err)
	}
	return enabled, nil
}

func (g *Gate) isEnabled(ctx context.Context) (bool, error) {
	vals, err := g.log.adapter.Get(ctx, g.flagKey)
	if err != nil {
		return false, err
	}
	raw, ok := vals[g.flagKey]
	if !ok {
		return false, nil
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return false, nil
	}
	return enabled, nil
}

// SetEnabled switches the gate. Turning it off always purges the log, even
// if it was already off.
func (g *Gate) SetEnabled(ctx context.Context, next bool) error {
	unlock := g.log.locks.Lock(g.log.key)
	defer unlock()

	items := map[string]json.RawMessage{g.flagKey: json.RawMessage(`true`)}
	if !next {
		items = map[string]json.RawMessage{
			g.flagKey: json.RawMessage(`false`),
			g.log.key: json.RawMessage(`[]`),
		}
	}

	if err := g.log.adapter.Set(ctx, items); err != nil {
		return g.log.fail("set-enabled", err)
	}
	if !next {
		entriesStored.WithLabelValues(g.log.name).Set(0)
	}

	slog.Info("gate switched", "log", g.log.name, "enabled", next)
	return nil
}

// Append appends to the log when the gate is on. When off it drops drafts
// silently and returns 0.
func (g *Gate) Append(ctx context.Context, drafts []Draft, opts AppendOptions) (int, error) {
	unlock := g.log.locks.Lock(g.log.key)
	defer unlock()

	enabled, err := g.isEnabled(ctx)
	if err != nil {
		return 0, g.log.fail("append", err)
	}
	if !enabled {
		entriesGated.WithLabelValues(g.log.name).Add(float64(len(drafts)))
		return 0, nil
	}
	return g.log.appendLocked(ctx, drafts, opts)
}

// AppendOne is Append for a single draft.
func (g *Gate) AppendOne(ctx context.Context, d Draft, opts AppendOptions) (int, error) {
	return g.Append(ctx, []Draft{d}, opts)
}

// Import replaces the log's collection when the gate is on, and is a silent
// no-op returning 0 when it is off.
func (g *Gate) Import(ctx context.Context, data []byte, opts AppendOptions) (int, error) {
	entries, err := decodeExport(data)
	if err != nil {
		return 0, err
	}

	unlock := g.log.locks.Lock(g.log.key)
	defer unlock()

	enabled, err := g.isEnabled(ctx)
	if err != nil {
		return 0, g.log.fail("import", err)
	}
	if !enabled {
		entriesGated.WithLabelValues(g.log.name).Add(float64(len(entries)))
		return 0, nil
	}
	return g.log.importLocked(ctx, entries, opts)
}

// List delegates to the wrapped log.
func (g *Gate) List(ctx context.Context, opts ListOptions) (Page, error) {
	return g.log.List(ctx, opts)
}

// Trim delegates to the wrapped log.
func (g *Gate) Trim(ctx context.Context, opts TrimOptions) (int, error) {
	return g.log.Trim(ctx, opts)
}

// Clear delegates to the wrapped log.
func (g *Gate) Clear(ctx context.Context) error {
	return g.log.Clear(ctx)
}

// ExportJSON delegates to the wrapped log.
func (g *Gate) ExportJSON(ctx context.Context, pretty bool) ([]byte, error) {
	return g.log.ExportJSON(ctx, pretty)
}

// Count delegates to the wrapped log.
func (g *Gate) Count(ctx context.Context) (int, error) {
	return g.log.Count(ctx)
}
