package eventlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_NewestFirstByDefault(t *testing.T) {
	tl := newTestLog(t)
	tl.appendAt(t, 100, 200, 300)

	page, err := tl.List(context.Background(), ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(300), page.Items[0].Ts)
}

func TestList_OldestFirst(t *testing.T) {
	tl := newTestLog(t)
	tl.appendAt(t, 100, 200, 300)

	page, err := tl.List(context.Background(), ListOptions{Order: OldestFirst})
	require.NoError(t, err)
	assert.Equal(t, []string{"at-100", "at-200", "at-300"}, messages(page.Items))
}

func TestList_EmptyLog(t *testing.T) {
	tl := newTestLog(t)

	page, err := tl.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestList_PaginationWindow(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	const n = 12
	ts := make([]int64, n)
	for i := range ts {
		ts[i] = int64(1000 + i)
	}
	tl.appendAt(t, ts...)

	for _, order := range []Order{NewestFirst, OldestFirst} {
		for offset := 0; offset <= n+2; offset++ {
			for limit := 1; limit <= n+2; limit++ {
				page, err := tl.List(ctx, ListOptions{Limit: limit, Offset: offset, Order: order})
				require.NoError(t, err)

				want := max(0, min(limit, n-offset))
				require.Equal(t, n, page.Total)
				require.Len(t, page.Items, want, "order=%d offset=%d limit=%d", order, offset, limit)
			}
		}
	}
}

func TestList_ReverseConsistency(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	tl.appendAt(t, 10, 20, 30, 40, 50, 60, 70)

	oldest, err := tl.List(ctx, ListOptions{Order: OldestFirst})
	require.NoError(t, err)
	newest, err := tl.List(ctx, ListOptions{Order: NewestFirst})
	require.NoError(t, err)

	require.Len(t, newest.Items, len(oldest.Items))
	for i := range oldest.Items {
		assert.Equal(t, oldest.Items[i], newest.Items[len(newest.Items)-1-i])
	}

	// Windowed pages walked newest first concatenate to the full reverse.
	var walked []Entry
	for offset := 0; offset < 7; offset += 3 {
		page, err := tl.List(ctx, ListOptions{Limit: 3, Offset: offset})
		require.NoError(t, err)
		walked = append(walked, page.Items...)
	}
	assert.Equal(t, newest.Items, walked)
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	tl.clock.Set(100)
	_, err := tl.Append(ctx, []Draft{
		{Kind: KindRun, Scope: ScopeUI, Message: "run-ui"},
		{Kind: KindError, Scope: ScopeAPI, Message: "error-api"},
	}, AppendOptions{})
	require.NoError(t, err)

	tl.clock.Set(200)
	_, err = tl.Append(ctx, []Draft{
		{Kind: KindRun, Scope: ScopeAPI, Message: "run-api"},
		{Kind: KindInfo, Scope: ScopeSettings, Message: "info-settings"},
	}, AppendOptions{})
	require.NoError(t, err)

	tl.clock.Set(300)
	_, err = tl.AppendOne(ctx, Draft{Kind: KindError, Scope: ScopeUI, Message: "error-ui"}, AppendOptions{})
	require.NoError(t, err)

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"kind", ListOptions{Kind: KindRun}, []string{"run-ui", "run-api"}},
		{"scope", ListOptions{Scope: ScopeAPI}, []string{"error-api", "run-api"}},
		{"kind and scope", ListOptions{Kind: KindError, Scope: ScopeUI}, []string{"error-ui"}},
		{"since inclusive", ListOptions{SinceTs: 200}, []string{"run-api", "info-settings", "error-ui"}},
		{"until inclusive", ListOptions{UntilTs: 200}, []string{"run-ui", "error-api", "run-api", "info-settings"}},
		{"range", ListOptions{SinceTs: 200, UntilTs: 200}, []string{"run-api", "info-settings"}},
		{"swapped range", ListOptions{SinceTs: 300, UntilTs: 200}, []string{"run-api", "info-settings", "error-ui"}},
		{"negative since is unset", ListOptions{SinceTs: -5}, []string{"run-ui", "error-api", "run-api", "info-settings", "error-ui"}},
		{"no match", ListOptions{Kind: KindDebug}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Order = OldestFirst
			page, err := tl.List(ctx, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, messages(page.Items))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestList_TotalCountsMatchesBeforeWindow(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)

	for i := 0; i < 10; i++ {
		kind := KindInfo
		if i%2 == 0 {
			kind = KindError
		}
		_, err := tl.AppendOne(ctx, Draft{Kind: kind, Scope: ScopeUI, Message: "m"}, AppendOptions{})
		require.NoError(t, err)
	}

	page, err := tl.List(ctx, ListOptions{Kind: KindError, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Items, 2)
}

func TestListOptions_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"zero", ListOptions{}, ListOptions{Limit: DefaultListLimit}},
		{"negative limit", ListOptions{Limit: -3}, ListOptions{Limit: 1}},
		{"huge limit", ListOptions{Limit: MaxListLimit + 1}, ListOptions{Limit: MaxListLimit}},
		{"negative offset", ListOptions{Limit: 5, Offset: -1}, ListOptions{Limit: 5}},
		{"huge offset", ListOptions{Limit: 5, Offset: MaxListOffset * 2}, ListOptions{Limit: 5, Offset: MaxListOffset}},
		{"negative until", ListOptions{Limit: 5, UntilTs: -1}, ListOptions{Limit: 5}},
		{"zero until keeps since", ListOptions{Limit: 5, SinceTs: 9}, ListOptions{Limit: 5, SinceTs: 9}},
		{"swap", ListOptions{Limit: 5, SinceTs: 9, UntilTs: 3}, ListOptions{Limit: 5, SinceTs: 3, UntilTs: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.normalized())
		})
	}
}

func TestList_ItemsDoNotAliasStorage(t *testing.T) {
	ctx := context.Background()
	tl := newTestLog(t)
	tl.appendAt(t, 1, 2)

	page, err := tl.List(ctx, ListOptions{})
	require.NoError(t, err)
	page.Items[0].Message = "mutated"

	again, err := tl.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "at-2", again.Items[0].Message)
}
