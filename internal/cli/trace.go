package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/logbook/internal/eventlog"
	"github.com/roach88/logbook/internal/logbook"
)

var traceDef = logDef{
	name:        "trace",
	defaultKind: eventlog.KindDebug,
	target:      func(lb *logbook.Logbook) logTarget { return lb.Trace() },
	appendFn: func(ctx context.Context, lb *logbook.Logbook, drafts ...eventlog.Draft) (int, error) {
		return lb.AppendTrace(ctx, drafts...)
	},
	importFn: func(ctx context.Context, lb *logbook.Logbook, data []byte) (int, error) {
		return lb.ImportTrace(ctx, data)
	},
}

// TraceStatus is the JSON payload of trace status, enable and disable.
type TraceStatus struct {
	Enabled bool `json:"enabled"`
	Entries int  `json:"entries"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Work with the opt-in debug trace",
		Long: `Work with the opt-in debug trace.

The trace records nothing until it is enabled. Disabling it erases its
history in the same write that turns it off.

Kinds: debug, info, error. Scopes: background, panel, settings, logs, demo,
ui, api. Appends are capped by the debugTraceMax setting.

Examples:
  logbook trace enable
  logbook trace append --scope panel --message "tab opened"
  logbook trace list --format json
  logbook trace disable`,
	}

	cmd.AddCommand(newTraceStatusCommand(rootOpts))
	cmd.AddCommand(newTraceSwitchCommand(rootOpts, true))
	cmd.AddCommand(newTraceSwitchCommand(rootOpts, false))
	cmd.AddCommand(newAppendCommand(rootOpts, traceDef))
	cmd.AddCommand(newListCommand(rootOpts, traceDef))
	cmd.AddCommand(newTrimCommand(rootOpts, traceDef))
	cmd.AddCommand(newClearCommand(rootOpts, traceDef))
	cmd.AddCommand(newExportCommand(rootOpts, traceDef))
	cmd.AddCommand(newImportCommand(rootOpts, traceDef))

	return cmd
}

func newTraceStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the trace is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd, opts, func(s *session) error {
				status, err := traceStatus(s)
				if err != nil {
					return err
				}
				return s.out.Success(status, func(w io.Writer) {
					fmt.Fprintf(w, "trace: %s, %d entries\n", onOff(status.Enabled), status.Entries)
				})
			})
		},
	}
}

func newTraceSwitchCommand(opts *RootOptions, enable bool) *cobra.Command {
	use, short := "enable", "Start recording trace entries"
	if !enable {
		use, short = "disable", "Stop recording and erase the trace"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd, opts, func(s *session) error {
				if err := s.lb.Trace().SetEnabled(s.ctx, enable); err != nil {
					return storageError("failed to switch trace", err)
				}
				status, err := traceStatus(s)
				if err != nil {
					return err
				}
				return s.out.Success(status, func(w io.Writer) {
					fmt.Fprintf(w, "trace %sd\n", use)
				})
			})
		},
	}
}

func traceStatus(s *session) (TraceStatus, error) {
	enabled, err := s.lb.Trace().IsEnabled(s.ctx)
	if err != nil {
		return TraceStatus{}, storageError("failed to read trace state", err)
	}
	n, err := s.lb.Trace().Count(s.ctx)
	if err != nil {
		return TraceStatus{}, storageError("failed to count trace entries", err)
	}
	return TraceStatus{Enabled: enabled, Entries: n}, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
