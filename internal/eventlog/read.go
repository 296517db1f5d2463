package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
)

// List limits and defaults.
const (
	DefaultListLimit = 200
	MaxListLimit     = 50000
	MaxListOffset    = 1_000_000
)

// Order selects the direction List walks the collection.
type Order int

const (
	// NewestFirst returns the most recent entries first. It is the default.
	NewestFirst Order = iota
	// OldestFirst returns entries in storage (insertion) order.
	OldestFirst
)

// ListOptions filters and windows a List call. The zero value lists the 200
// newest entries.
//
// Out-of-range values are normalized, never rejected: Limit is clamped into
// [1, MaxListLimit], Offset into [0, MaxListOffset], negative timestamps are
// unset, and a SinceTs later than UntilTs is swapped.
//
// Zero is read as "not given" rather than as a literal value. Limit 0 means
// DefaultListLimit, not a one-entry page; callers wanting a single entry pass
// 1. UntilTs 0 means no upper bound, not "nothing at or before the epoch".
type ListOptions struct {
	Limit  int
	Offset int
	Order  Order

	// Equality filters; empty matches everything.
	Kind  Kind
	Scope Scope

	// Inclusive ts range in ms; zero or negative means unbounded.
	SinceTs int64
	UntilTs int64
}

// Page is one window of a List call.
type Page struct {
	// Total is the number of entries matching the filters, before
	// Offset and Limit are applied.
	Total int     `json:"total"`
	Items []Entry `json:"items"`
}

// normalized returns o with every field inside its valid range.
func (o ListOptions) normalized() ListOptions {
	if o.Limit == 0 {
		o.Limit = DefaultListLimit
	}
	o.Limit = clampInt(o.Limit, 1, MaxListLimit)
	o.Offset = clampInt(o.Offset, 0, MaxListOffset)

	if o.SinceTs < 0 {
		o.SinceTs = 0
	}
	if o.UntilTs < 0 {
		o.UntilTs = 0
	}
	if o.SinceTs > 0 && o.UntilTs > 0 && o.SinceTs > o.UntilTs {
		o.SinceTs, o.UntilTs = o.UntilTs, o.SinceTs
	}
	return o
}

// matches reports whether e passes every filter in o.
func (o ListOptions) matches(e Entry) bool {
	if o.Kind != "" && e.Kind != o.Kind {
		return false
	}
	if o.Scope != "" && e.Scope != o.Scope {
		return false
	}
	if o.SinceTs > 0 && e.Ts < o.SinceTs {
		return false
	}
	if o.UntilTs > 0 && e.Ts > o.UntilTs {
		return false
	}
	return true
}

// List filters the collection, counts the matches, orders them and returns
// the [Offset, Offset+Limit) window. Items is never nil.
func (l *Log) List(ctx context.Context, opts ListOptions) (Page, error) {
	all, err := l.load(ctx)
	if err != nil {
		return Page{}, l.fail("list", err)
	}
	return listPage(all, opts), nil
}

func listPage(all []Entry, opts ListOptions) Page {
	opts = opts.normalized()

	filtered := make([]Entry, 0, len(all))
	for _, e := range all {
		if opts.matches(e) {
			filtered = append(filtered, e)
		}
	}

	total := len(filtered)

	if opts.Order == NewestFirst {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	items := make([]Entry, end-start)
	copy(items, filtered[start:end])

	return Page{Total: total, Items: items}
}

// ExportJSON serializes the full collection, oldest first, as a JSON array.
// An empty log exports as "[]". pretty indents with two spaces.
func (l *Log) ExportJSON(ctx context.Context, pretty bool) ([]byte, error) {
	all, err := l.load(ctx)
	if err != nil {
		return nil, l.fail("export", err)
	}

	data, err := encodeEntries(all)
	if err != nil {
		return nil, err
	}
	if !pretty {
		return data, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeExport parses an ExportJSON document.
func decodeExport(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ImportError{Err: err}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
