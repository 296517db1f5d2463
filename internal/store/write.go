package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/logbook/internal/kv"
)

// Set implements kv.Adapter.
// All keys are upserted in one transaction; subscribers are notified after
// the commit succeeds.
func (s *Store) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	now := s.now()
	changes := make(kv.Changes, len(items))

	// Sorted keys keep the write order deterministic across runs
	for _, key := range sortedKeys(items) {
		value := items[key]

		old, err := selectValue(ctx, tx, key)
		if err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, key, string(value), now)
		if err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}

		changes[key] = kv.Change{OldValue: old, NewValue: kv.Clone(value)}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set: commit: %w", err)
	}

	s.subs.Publish(changes, Area)
	return nil
}

// Remove implements kv.Adapter.
// Missing keys are ignored and produce no notification.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("remove: begin tx: %w", err)
	}
	defer tx.Rollback()

	changes := make(kv.Changes, len(keys))
	for _, key := range keys {
		old, err := selectValue(ctx, tx, key)
		if err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
		if old == nil {
			continue
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
		changes[key] = kv.Change{OldValue: old}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("remove: commit: %w", err)
	}

	s.subs.Publish(changes, Area)
	return nil
}

// selectValue returns the current value of key inside tx, or nil if absent.
func selectValue(ctx context.Context, tx *sql.Tx, key string) (json.RawMessage, error) {
	var value string
	err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select existing: %w", err)
	}
	return json.RawMessage(value), nil
}

func sortedKeys(items map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
