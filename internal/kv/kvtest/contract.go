// Package kvtest holds the behavioural suite every kv.Adapter must pass.
package kvtest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logbook/internal/kv"
)

// Factory returns a fresh, empty adapter for one subtest.
type Factory func(t *testing.T) kv.Adapter

// RunAdapterContract runs the shared adapter suite against newAdapter.
// Adapters that also implement kv.Notifier get the notification cases.
func RunAdapterContract(t *testing.T, newAdapter Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing keys is empty", func(t *testing.T) {
		a := newAdapter(t)

		got, err := a.Get(ctx, "nope", "also-nope")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("set then get", func(t *testing.T) {
		a := newAdapter(t)

		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{
			"a": json.RawMessage(`[1,2,3]`),
			"b": json.RawMessage(`true`),
		}))

		got, err := a.Get(ctx, "a", "b", "c")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.JSONEq(t, `[1,2,3]`, string(got["a"]))
		assert.JSONEq(t, `true`, string(got["b"]))
	})

	t.Run("set replaces wholesale", func(t *testing.T) {
		a := newAdapter(t)

		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`{"x":1,"y":2}`)}))
		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`{"z":3}`)}))

		got, err := a.Get(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"z":3}`, string(got["k"]))
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		a := newAdapter(t)

		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`1`)}))
		require.NoError(t, a.Remove(ctx, "k"))
		require.NoError(t, a.Remove(ctx, "k", "never-existed"))

		got, err := a.Get(ctx, "k")
		require.NoError(t, err)
		assert.NotContains(t, got, "k")
	})

	t.Run("returned values are copies", func(t *testing.T) {
		a := newAdapter(t)

		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`"abc"`)}))
		got, err := a.Get(ctx, "k")
		require.NoError(t, err)
		got["k"][1] = 'z'

		again, err := a.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `"abc"`, string(again["k"]))
	})

	t.Run("concurrent readers never see torn values", func(t *testing.T) {
		a := newAdapter(t)
		small := json.RawMessage(`["a"]`)
		large := json.RawMessage(`["a","b","c","d","e","f","g","h"]`)
		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": small}))

		var wg sync.WaitGroup
		stop := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				v := small
				if i%2 == 0 {
					v = large
				}
				_ = a.Set(ctx, map[string]json.RawMessage{"k": v})
			}
			close(stop)
		}()

		for done := false; !done; {
			select {
			case <-stop:
				done = true
			default:
			}
			got, err := a.Get(ctx, "k")
			require.NoError(t, err)
			var decoded []string
			require.NoError(t, json.Unmarshal(got["k"], &decoded))
			assert.Contains(t, []int{1, 8}, len(decoded))
		}
		wg.Wait()
	})

	t.Run("notifications after commit", func(t *testing.T) {
		a := newAdapter(t)
		n, ok := a.(kv.Notifier)
		if !ok {
			t.Skip("adapter does not publish changes")
		}

		got := make(chan kv.Changes, 4)
		unsubscribe := n.OnChanged(func(c kv.Changes, _ string) { got <- c })
		defer unsubscribe()

		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`1`)}))
		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`2`)}))
		require.NoError(t, a.Remove(ctx, "k"))

		first := waitChanges(t, got)
		assert.Nil(t, first["k"].OldValue)
		assert.JSONEq(t, `1`, string(first["k"].NewValue))

		second := waitChanges(t, got)
		assert.JSONEq(t, `1`, string(second["k"].OldValue))
		assert.JSONEq(t, `2`, string(second["k"].NewValue))

		third := waitChanges(t, got)
		assert.JSONEq(t, `2`, string(third["k"].OldValue))
		assert.Nil(t, third["k"].NewValue)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		a := newAdapter(t)
		n, ok := a.(kv.Notifier)
		if !ok {
			t.Skip("adapter does not publish changes")
		}

		var mu sync.Mutex
		calls := 0
		unsubscribe := n.OnChanged(func(kv.Changes, string) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
		unsubscribe()

		require.NoError(t, a.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`1`)}))

		mu.Lock()
		defer mu.Unlock()
		assert.Zero(t, calls)
	})
}

func waitChanges(t *testing.T, ch <-chan kv.Changes) kv.Changes {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return nil
	}
}
