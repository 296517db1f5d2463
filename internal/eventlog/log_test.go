package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logbook/internal/kv"
)

func TestAppend_CapScenario(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	total, err := tl.Append(ctx, drafts(3), AppendOptions{Max: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"#2", "#3"}, messages(tl.stored(t)))

	total, err = tl.Trim(ctx, TrimOptions{KeepLast: Keep(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"#3"}, messages(tl.stored(t)))

	require.NoError(t, tl.Clear(ctx))
	assert.Empty(t, tl.stored(t))
}

func TestAppend_CapAcrossCalls(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	for i, d := range drafts(3) {
		total, err := tl.AppendOne(ctx, d, AppendOptions{Max: 2})
		require.NoError(t, err)
		assert.Equal(t, min(i+1, 2), total)
	}

	assert.Equal(t, []string{"#2", "#3"}, messages(tl.stored(t)))
}

func TestAppend_CapInvariantHoldsForEveryCall(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	const capacity = 7

	var all []string
	for batch := 1; batch <= 6; batch++ {
		ds := make([]Draft, batch)
		for i := range ds {
			msg := string(rune('a' + len(all)))
			all = append(all, msg)
			ds[i] = Draft{Kind: KindRun, Scope: ScopeAPI, Message: msg}
		}

		total, err := tl.Append(ctx, ds, AppendOptions{Max: capacity})
		require.NoError(t, err)

		got := messages(tl.stored(t))
		require.LessOrEqual(t, len(got), capacity)
		require.Equal(t, total, len(got))

		want := all
		if len(want) > capacity {
			want = want[len(want)-capacity:]
		}
		require.Equal(t, want, got, "after batch %d", batch)
	}
}

func TestAppend_AssignsIDAndSharedTimestamp(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	tl.clock.Set(4242)

	_, err := tl.Append(ctx, drafts(3), AppendOptions{})
	require.NoError(t, err)

	got := tl.stored(t)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"entry-0001", "entry-0002", "entry-0003"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for _, e := range got {
		assert.Equal(t, int64(4242), e.Ts)
	}
}

func TestAppend_DefaultIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	l := New(kv.NewMemory(), "ids", WithLocks(kv.NewKeyLocks()), WithName(t.Name()))

	_, err := l.Append(ctx, drafts(500), AppendOptions{})
	require.NoError(t, err)

	page, err := l.List(ctx, ListOptions{Limit: MaxListLimit})
	require.NoError(t, err)

	seen := make(map[string]bool, len(page.Items))
	for _, e := range page.Items {
		require.NotEmpty(t, e.ID)
		require.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
}

func TestAppend_EmptyInputWritesNothing(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	_, err := tl.Append(ctx, drafts(2), AppendOptions{})
	require.NoError(t, err)
	writes := tl.mem.Writes()

	total, err := tl.Append(ctx, nil, AppendOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, writes, tl.mem.Writes())
}

func TestAppend_DefaultMaxIsClamped(t *testing.T) {
	ctx := context.Background()
	l := New(kv.NewMemory(), "clamped",
		WithDefaultMax(10),
		WithLocks(kv.NewKeyLocks()),
		WithName(t.Name()),
	)

	total, err := l.Append(ctx, drafts(150), AppendOptions{})
	require.NoError(t, err)
	assert.Equal(t, MinCap, total, "a default below the range is raised to MinCap")

	total, err = l.Append(ctx, drafts(1), AppendOptions{Max: 1})
	require.NoError(t, err)
	assert.Equal(t, MinCap, total, "an override below the range is raised too")
}

func TestAppend_EffectiveMax(t *testing.T) {
	l := New(kv.NewMemory(), "k", WithDefaultMax(DefaultTraceMax))

	assert.Equal(t, DefaultTraceMax, l.effectiveMax(0))
	assert.Equal(t, MinCap, l.effectiveMax(-5))
	assert.Equal(t, 700, l.effectiveMax(700))
	assert.Equal(t, MaxCap, l.effectiveMax(MaxCap*2))
}

func TestAppend_NormalizesMessage(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	_, err := tl.AppendOne(ctx, Draft{Kind: KindInfo, Scope: ScopeUI, Message: "cafe\u0301"}, AppendOptions{})
	require.NoError(t, err)

	assert.Equal(t, "caf\u00e9", tl.stored(t)[0].Message)
}

func TestAppend_KeepsOptionalFields(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	_, err := tl.AppendOne(ctx, Draft{
		Kind:    KindError,
		Scope:   ScopeAPI,
		Message: "request failed",
		OK:      Bool(false),
		Status:  Int(503),
		Error:   "upstream unavailable",
		Meta:    map[string]any{"attempt": "3"},
	}, AppendOptions{})
	require.NoError(t, err)

	e := tl.stored(t)[0]
	require.NotNil(t, e.OK)
	assert.False(t, *e.OK)
	require.NotNil(t, e.Status)
	assert.Equal(t, 503, *e.Status)
	assert.Equal(t, "upstream unavailable", e.Error)
	assert.Equal(t, map[string]any{"attempt": "3"}, e.Meta)
}

func TestAppend_PersistenceFailurePropagates(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	_, err := tl.Append(ctx, drafts(2), AppendOptions{})
	require.NoError(t, err)

	boom := errors.New("disk full")
	tl.mem.FailWith(boom)
	_, err = tl.Append(ctx, drafts(1), AppendOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	tl.mem.FailWith(nil)
	assert.Len(t, tl.stored(t), 2, "failed append leaves the collection untouched")
}

// failingSet fails only writes, so the read half of append succeeds.
type failingSet struct {
	kv.Adapter
	err error
}

func (f failingSet) Set(context.Context, map[string]json.RawMessage) error { return f.err }

func TestAppend_WriteFailureAfterRead(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	boom := errors.New("quota")
	l := New(failingSet{Adapter: mem, err: boom}, "k", WithLocks(kv.NewKeyLocks()), WithName(t.Name()))

	total, err := l.Append(ctx, drafts(1), AppendOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, total)
	assert.Zero(t, mem.Len())
}

func TestAppend_ConcurrentAppendsLoseNothing(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	const workers, perWorker = 20, 10
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := tl.AppendOne(ctx, Draft{Kind: KindInfo, Scope: ScopeUI, Message: "x"}, AppendOptions{})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := tl.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, n)
}

func TestAppend_TwoHandlesSameKeyShareLocks(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	a := New(mem, "shared.key", WithName(t.Name()+"-a"))
	b := New(mem, "shared.key", WithName(t.Name()+"-b"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = a.AppendOne(ctx, Draft{Kind: KindInfo, Message: "a"}, AppendOptions{})
		}()
		go func() {
			defer wg.Done()
			_, _ = b.AppendOne(ctx, Draft{Kind: KindInfo, Message: "b"}, AppendOptions{})
		}()
	}
	wg.Wait()

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestLoad_MalformedValueReadsEmpty(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	require.NoError(t, tl.mem.Set(ctx, map[string]json.RawMessage{tl.Key(): json.RawMessage(`{"not":"an array"}`)}))

	n, err := tl.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := tl.Append(ctx, drafts(1), AppendOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "next append starts a fresh array")
}

func TestLoad_NullValueReadsEmpty(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	require.NoError(t, tl.mem.Set(ctx, map[string]json.RawMessage{tl.Key(): json.RawMessage(`null`)}))

	page, err := tl.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)
}

func TestClear_Idempotent(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	_, err := tl.Append(ctx, drafts(3), AppendOptions{})
	require.NoError(t, err)

	require.NoError(t, tl.Clear(ctx))
	require.NoError(t, tl.Clear(ctx))

	n, err := tl.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClear_PropagatesFailure(t *testing.T) {
	tl := newTestLog(t)
	boom := errors.New("io")
	tl.mem.FailWith(boom)

	assert.ErrorIs(t, tl.Clear(context.Background()), boom)
}

func TestNew_Accessors(t *testing.T) {
	l := New(kv.NewMemory(), "logbook.actionLog")
	assert.Equal(t, "logbook.actionLog", l.Key())
	assert.Equal(t, "logbook.actionLog", l.Name(), "name defaults to key")

	l = New(kv.NewMemory(), "k", WithName("audit"), WithCapRange(0, -1))
	assert.Equal(t, "audit", l.Name())
	assert.Equal(t, 1, l.capMin)
	assert.Equal(t, 1, l.capMax)
}
