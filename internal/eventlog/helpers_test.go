package eventlog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/logbook/internal/kv"
	"github.com/roach88/logbook/internal/testutil"
)

// testLog bundles a log with the probes tests assert on.
type testLog struct {
	*Log
	mem   *kv.Memory
	clock *testutil.ManualClock
}

// newTestLog creates a log over a fresh in-memory adapter with a manual
// clock at 1_700_000_000_000 and sequential ids. The cap range is [1, 50000]
// so tests can use small caps.
func newTestLog(t *testing.T, opts ...Option) *testLog {
	t.Helper()
	mem := kv.NewMemory()
	clock := testutil.NewManualClock(1_700_000_000_000)

	base := []Option{
		WithName(t.Name()),
		WithClock(clock.Now),
		WithIDGenerator(testutil.NewSequentialIDs("entry")),
		WithCapRange(1, MaxCap),
		WithLocks(kv.NewKeyLocks()),
	}
	l := New(mem, "test.log", append(base, opts...)...)
	return &testLog{Log: l, mem: mem, clock: clock}
}

// drafts returns n info drafts with messages "#1".."#n".
func drafts(n int) []Draft {
	out := make([]Draft, n)
	for i := range out {
		out[i] = Draft{Kind: KindInfo, Scope: ScopeUI, Message: fmt.Sprintf("#%d", i+1)}
	}
	return out
}

// messages lists the messages of entries in order.
func messages(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// stored returns the whole collection oldest first.
func (tl *testLog) stored(t *testing.T) []Entry {
	t.Helper()
	page, err := tl.List(context.Background(), ListOptions{Limit: MaxListLimit, Order: OldestFirst})
	require.NoError(t, err)
	return page.Items
}

// appendAt appends one draft per ts, moving the clock before each.
func (tl *testLog) appendAt(t *testing.T, ts ...int64) {
	t.Helper()
	for i, v := range ts {
		tl.clock.Set(v)
		_, err := tl.AppendOne(context.Background(), Draft{
			Kind:    KindInfo,
			Scope:   ScopeUI,
			Message: fmt.Sprintf("at-%d", v),
			Status:  Int(i),
		}, AppendOptions{})
		require.NoError(t, err)
	}
}
