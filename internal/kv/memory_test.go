package kv_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logbook/internal/kv"
	"github.com/roach88/logbook/internal/kv/kvtest"
)

func TestMemory_Contract(t *testing.T) {
	kvtest.RunAdapterContract(t, func(t *testing.T) kv.Adapter {
		return kv.NewMemory()
	})
}

func TestMemory_WritesProbe(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	_, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Writes(), "reads are not writes")

	require.NoError(t, m.Set(ctx, map[string]json.RawMessage{"a": json.RawMessage(`1`), "b": json.RawMessage(`2`)}))
	assert.Equal(t, int64(1), m.Writes(), "one Set is one write regardless of key count")

	require.NoError(t, m.Remove(ctx, "a"))
	assert.Equal(t, int64(2), m.Writes())
	assert.Equal(t, 1, m.Len())
}

func TestMemory_EmptySetIsNotAWrite(t *testing.T) {
	m := kv.NewMemory()

	require.NoError(t, m.Set(context.Background(), nil))
	require.NoError(t, m.Remove(context.Background()))
	assert.Equal(t, int64(0), m.Writes())
}

func TestMemory_FailWith(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	boom := errors.New("quota exceeded")

	m.FailWith(boom)
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`1`)}), boom)
	assert.ErrorIs(t, m.Remove(ctx, "k"), boom)
	assert.Equal(t, int64(0), m.Writes())

	m.FailWith(nil)
	require.NoError(t, m.Set(ctx, map[string]json.RawMessage{"k": json.RawMessage(`1`)}))
}

func TestMemory_RemoveMissingKeyPublishesNothing(t *testing.T) {
	m := kv.NewMemory()
	calls := 0
	defer m.OnChanged(func(kv.Changes, string) { calls++ })()

	require.NoError(t, m.Remove(context.Background(), "missing"))
	assert.Zero(t, calls)
}

func TestMemory_AreaName(t *testing.T) {
	m := kv.NewMemory()
	var area string
	defer m.OnChanged(func(_ kv.Changes, a string) { area = a })()

	require.NoError(t, m.Set(context.Background(), map[string]json.RawMessage{"k": json.RawMessage(`1`)}))
	assert.Equal(t, kv.MemoryArea, area)
}
