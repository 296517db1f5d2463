package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/logbook/internal/eventlog"
)

// draftFlags are the flags of the append commands.
type draftFlags struct {
	Kind    string
	Scope   string
	Message string
	OK      bool
	Status  int
	Error   string
	Meta    []string
}

func (f *draftFlags) register(cmd *cobra.Command, defaultKind string) {
	cmd.Flags().StringVar(&f.Kind, "kind", defaultKind, "entry kind")
	cmd.Flags().StringVar(&f.Scope, "scope", "", "entry scope (required)")
	cmd.Flags().StringVarP(&f.Message, "message", "m", "", "entry message (required)")
	cmd.Flags().BoolVar(&f.OK, "ok", false, "mark the entry as succeeded (--ok=false for failed)")
	cmd.Flags().IntVar(&f.Status, "status", 0, "numeric status, e.g. an HTTP code")
	cmd.Flags().StringVar(&f.Error, "error", "", "error text")
	cmd.Flags().StringArrayVar(&f.Meta, "meta", nil, "metadata as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("message")
}

// draft builds the draft; ok and status are only set when their flags were
// given.
func (f *draftFlags) draft(cmd *cobra.Command) (eventlog.Draft, error) {
	d := eventlog.Draft{
		Kind:    eventlog.Kind(f.Kind),
		Scope:   eventlog.Scope(f.Scope),
		Message: f.Message,
		Error:   f.Error,
	}
	if cmd.Flags().Changed("ok") {
		d.OK = eventlog.Bool(f.OK)
	}
	if cmd.Flags().Changed("status") {
		d.Status = eventlog.Int(f.Status)
	}

	meta, err := parseMeta(f.Meta)
	if err != nil {
		return eventlog.Draft{}, err
	}
	d.Meta = meta
	return d, nil
}

// parseMeta turns key=value pairs into a map. Nil when pairs is empty.
func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("meta %q: want key=value", p)
		}
		meta[k] = v
	}
	return meta, nil
}

// listFlags are the flags of the list commands.
type listFlags struct {
	Limit       int
	Offset      int
	OldestFirst bool
	Kind        string
	Scope       string
	Since       string
	Until       string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.Limit, "limit", "n", eventlog.DefaultListLimit, "maximum entries to show")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "entries to skip after ordering")
	cmd.Flags().BoolVar(&f.OldestFirst, "oldest-first", false, "show oldest entries first")
	cmd.Flags().StringVar(&f.Kind, "kind", "", "only entries of this kind")
	cmd.Flags().StringVar(&f.Scope, "scope", "", "only entries of this scope")
	cmd.Flags().StringVar(&f.Since, "since", "", "only entries at or after this time (ms or RFC 3339)")
	cmd.Flags().StringVar(&f.Until, "until", "", "only entries at or before this time (ms or RFC 3339)")
}

func (f *listFlags) options() (eventlog.ListOptions, error) {
	since, err := parseTs(f.Since)
	if err != nil {
		return eventlog.ListOptions{}, fmt.Errorf("--since: %w", err)
	}
	until, err := parseTs(f.Until)
	if err != nil {
		return eventlog.ListOptions{}, fmt.Errorf("--until: %w", err)
	}

	opts := eventlog.ListOptions{
		Limit:   f.Limit,
		Offset:  f.Offset,
		Kind:    eventlog.Kind(f.Kind),
		Scope:   eventlog.Scope(f.Scope),
		SinceTs: since,
		UntilTs: until,
	}
	if f.OldestFirst {
		opts.Order = eventlog.OldestFirst
	}
	return opts, nil
}

// trimFlags are the flags of the trim commands.
type trimFlags struct {
	KeepLast int
	Before   string
}

func (f *trimFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.KeepLast, "keep-last", 0, "keep only the newest N entries (0 clears)")
	cmd.Flags().StringVar(&f.Before, "before", "", "drop entries older than this time (ms or RFC 3339)")
}

func (f *trimFlags) options(cmd *cobra.Command) (eventlog.TrimOptions, error) {
	before, err := parseTs(f.Before)
	if err != nil {
		return eventlog.TrimOptions{}, fmt.Errorf("--before: %w", err)
	}
	opts := eventlog.TrimOptions{BeforeTs: before}
	if cmd.Flags().Changed("keep-last") {
		opts.KeepLast = eventlog.Keep(f.KeepLast)
	}
	if opts.KeepLast == nil && opts.BeforeTs == 0 {
		return eventlog.TrimOptions{}, fmt.Errorf("one of --keep-last or --before is required")
	}
	return opts, nil
}

// parseTs reads a timestamp as ms since the epoch or as RFC 3339. Empty is 0.
func parseTs(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither ms since epoch nor RFC 3339", s)
	}
	return t.UnixMilli(), nil
}
