package eventlog

import (
	"context"
	"log/slog"
)

// MaxKeepLast is the largest KeepLast honoured by Trim.
const MaxKeepLast = 50000

// TrimOptions selects which entries Trim keeps. Both filters are optional;
// when both are set the age filter runs first.
type TrimOptions struct {
	// BeforeTs drops entries with ts < BeforeTs. Zero or negative is unset.
	BeforeTs int64
	// KeepLast keeps only the most recent n entries, clamped into
	// [0, MaxKeepLast]. Zero clears the log. Nil is unset.
	KeepLast *int
}

// Keep returns a KeepLast value.
func Keep(n int) *int { return Int(n) }

// Trim removes entries by age and/or count and returns the stored count.
// Nothing is written when no entry is removed.
func (l *Log) Trim(ctx context.Context, opts TrimOptions) (int, error) {
	unlock := l.locks.Lock(l.key)
	defer unlock()

	return l.trimLocked(ctx, opts)
}

func (l *Log) trimLocked(ctx context.Context, opts TrimOptions) (int, error) {
	all, err := l.load(ctx)
	if err != nil {
		return 0, l.fail("trim", err)
	}

	next := trimEntries(all, opts)
	removed := len(all) - len(next)
	if removed == 0 {
		return len(all), nil
	}

	if err := l.save(ctx, next); err != nil {
		return 0, l.fail("trim", err)
	}
	entriesTrimmed.WithLabelValues(l.name).Add(float64(removed))

	slog.Info("log trimmed",
		"log", l.name,
		"removed", removed,
		"total", len(next),
	)
	return len(next), nil
}

func trimEntries(all []Entry, opts TrimOptions) []Entry {
	next := all

	if opts.BeforeTs > 0 {
		kept := make([]Entry, 0, len(next))
		for _, e := range next {
			if e.Ts >= opts.BeforeTs {
				kept = append(kept, e)
			}
		}
		next = kept
	}

	if opts.KeepLast != nil {
		keep := clampInt(*opts.KeepLast, 0, MaxKeepLast)
		if keep == 0 {
			next = []Entry{}
		} else if len(next) > keep {
			next = next[len(next)-keep:]
		}
	}

	return next
}
