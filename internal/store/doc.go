// Package store provides the SQLite-backed kv.Adapter for logbook.
//
// Every key is one row in the kv table holding a JSON document. Event logs
// keep their whole entry array under a single key, so a log write is a
// single-row upsert and readers always see a complete array.
//
// # Critical Patterns
//
// Atomic multi-key writes
//   - Set and Remove run in one transaction, so the trace gate can store
//     its flag and empty its entries together
//
// Notify after commit
//   - Change notifications are built inside the transaction but published
//     only after Commit returns
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// The connection pool is limited to one connection; SQLite allows a single
// writer and this keeps SQLITE_BUSY out of the write path.
package store
