package kv

import (
	"context"
	"encoding/json"
)

// Adapter is the persistence service consumed by the event logs and the
// settings cache.
//
// Get returns only the keys that exist. Set replaces each key's value and is
// atomic across all keys of one call. Remove ignores keys that do not exist.
type Adapter interface {
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, items map[string]json.RawMessage) error
	Remove(ctx context.Context, keys ...string) error
}

// Notifier is implemented by adapters that publish change notifications.
type Notifier interface {
	// OnChanged registers h and returns a function that unregisters it.
	OnChanged(h Handler) (unsubscribe func())
}

// Handler receives the changed keys of one committed write and the name of
// the storage area that produced it.
type Handler func(changes Changes, area string)

// Change describes one key transition. A nil value means "absent".
type Change struct {
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

// Changes maps changed keys to their transitions.
type Changes map[string]Change

// Keys returns the changed key names.
func (c Changes) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a copy of b so adapters never hand out their own buffers.
func Clone(b []byte) json.RawMessage {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
