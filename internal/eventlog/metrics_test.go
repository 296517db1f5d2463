package eventlog

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_AppendEvictTrim(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	name := tl.Name()

	_, err := tl.Append(ctx, drafts(5), AppendOptions{Max: 3})
	require.NoError(t, err)

	assert.Equal(t, 5.0, promtest.ToFloat64(entriesAppended.WithLabelValues(name)))
	assert.Equal(t, 2.0, promtest.ToFloat64(entriesEvicted.WithLabelValues(name)))
	assert.Equal(t, 3.0, promtest.ToFloat64(entriesStored.WithLabelValues(name)))

	_, err = tl.Trim(ctx, TrimOptions{KeepLast: Keep(1)})
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(entriesTrimmed.WithLabelValues(name)))
	assert.Equal(t, 1.0, promtest.ToFloat64(entriesStored.WithLabelValues(name)))

	require.NoError(t, tl.Clear(ctx))
	assert.Equal(t, 0.0, promtest.ToFloat64(entriesStored.WithLabelValues(name)))
}

func TestMetrics_GatedAndErrors(t *testing.T) {
	ctx := context.Background()
	g, tl := newTestGate(t)
	name := tl.Name()

	_, err := g.Append(ctx, drafts(4), AppendOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, promtest.ToFloat64(entriesGated.WithLabelValues(name)))

	tl.mem.FailWith(errors.New("down"))
	_, err = tl.Count(ctx)
	require.Error(t, err)
	_, err = tl.List(ctx, ListOptions{})
	require.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(operationErrors.WithLabelValues(name, "count")))
	assert.Equal(t, 1.0, promtest.ToFloat64(operationErrors.WithLabelValues(name, "list")))
}
