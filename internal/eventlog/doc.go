// Package eventlog implements logbook's capped, append-only event logs.
//
// # Overview
//
// A Log keeps its whole collection as one JSON array under a single storage
// key of a kv.Adapter. Entries are stored oldest first, in insertion order;
// newest-first is applied when reading.
//
//	audit := eventlog.New(adapter, "logbook.actionLog", eventlog.WithDefaultMax(eventlog.DefaultAuditMax))
//	total, _ := audit.Append(ctx, []eventlog.Draft{{Kind: eventlog.KindRun, Scope: eventlog.ScopeUI, Message: "export"}}, eventlog.AppendOptions{})
//	page, _ := audit.List(ctx, eventlog.ListOptions{Limit: 50})
//	_, _ = audit.Trim(ctx, eventlog.TrimOptions{KeepLast: eventlog.Keep(1000)})
//	doc, _ := audit.ExportJSON(ctx, true)
//
// # Invariants
//
//   - The stored collection never exceeds the effective cap. Append drops
//     the oldest entries until it fits, in the same write.
//   - id and ts are assigned on write; one Append call shares a single ts.
//   - Every mutation is a read-modify-write under the key's lock from
//     kv.KeyLocks, so concurrent appends never lose entries.
//
// # Gate
//
// Gate wraps a Log with a persisted on/off flag. While off, appends are
// dropped without touching storage. Turning it off stores the flag and an
// empty collection in one adapter write, so "off" always means "empty".
package eventlog
