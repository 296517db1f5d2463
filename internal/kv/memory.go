package kv

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// MemoryArea is the area name Memory reports in change notifications.
const MemoryArea = "local"

// Memory is an in-process Adapter and Notifier.
//
// It counts every Set and Remove call that reaches the map, which lets tests
// assert that an operation performed no write. FailWith makes every call
// return the given error until it is reset with nil.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs Subscribers

	writes atomic.Int64
	failMu sync.RWMutex
	fail   error
}

// NewMemory returns an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get implements Adapter.
func (m *Memory) Get(_ context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = Clone(v)
		}
	}
	return out, nil
}

// Set implements Adapter. All keys are replaced in one critical section.
func (m *Memory) Set(_ context.Context, items map[string]json.RawMessage) error {
	if err := m.failure(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	changes := make(Changes, len(items))

	m.mu.Lock()
	for k, v := range items {
		old := m.data[k]
		m.data[k] = Clone(v)
		changes[k] = Change{OldValue: Clone(old), NewValue: Clone(v)}
	}
	m.writes.Add(1)
	m.mu.Unlock()

	m.subs.Publish(changes, MemoryArea)
	return nil
}

// Remove implements Adapter.
func (m *Memory) Remove(_ context.Context, keys ...string) error {
	if err := m.failure(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	changes := make(Changes, len(keys))

	m.mu.Lock()
	for _, k := range keys {
		if old, ok := m.data[k]; ok {
			delete(m.data, k)
			changes[k] = Change{OldValue: Clone(old)}
		}
	}
	m.writes.Add(1)
	m.mu.Unlock()

	m.subs.Publish(changes, MemoryArea)
	return nil
}

// OnChanged implements Notifier.
func (m *Memory) OnChanged(h Handler) func() {
	return m.subs.Add(h)
}

// Writes returns the number of Set and Remove calls that were applied.
func (m *Memory) Writes() int64 {
	return m.writes.Load()
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *Memory) FailWith(err error) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.fail = err
}

func (m *Memory) failure() error {
	m.failMu.RLock()
	defer m.failMu.RUnlock()
	return m.fail
}

var (
	_ Adapter  = (*Memory)(nil)
	_ Notifier = (*Memory)(nil)
)
