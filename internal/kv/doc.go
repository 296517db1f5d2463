// Package kv defines the key-value persistence contract the logbook core is
// built on, plus the small pieces every adapter shares.
//
// An Adapter stores opaque JSON values under string keys. Values are replaced
// wholesale by Set; there is no read-modify-write primitive, so callers that
// need one serialize through KeyLocks.
//
// Adapters that can report writes also implement Notifier. Notifications are
// delivered after the write commits, outside any adapter lock, once per
// changed key per write.
//
// Implementations:
//   - Memory: in-process map, used by tests and the "memory" backend
//   - store.Store: SQLite (internal/store)
//   - pebblekv.DB: Pebble (internal/kv/pebblekv)
package kv
