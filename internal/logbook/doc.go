// Package logbook wires a configured storage adapter to the two event logs
// and the settings cache.
//
// A Logbook owns the adapter it opened. The audit log, the debug trace and
// the settings cache take their locks from the table kv.LocksFor hands out
// for that storage, so every handle on it in this process serializes writes
// to the same key. Every append and import takes its cap from the current
// settings snapshot and fails with settings.ErrNotLoaded rather than
// guessing when that snapshot is missing.
package logbook
