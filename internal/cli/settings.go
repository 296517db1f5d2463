package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/logbook/internal/settings"
)

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the persisted settings",
		Long: `Show or change the persisted settings.

Values outside their range are clamped on save:
  actionLogMax       [100, 50000]  default 5000
  debugTraceMax      [100, 50000]  default 2000
  failureLogsPerRun  [0, 50000]    default 50
  traceConsole       bool          default false`,
	}

	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))
	cmd.AddCommand(newSettingsResetCommand(rootOpts))

	return cmd
}

func newSettingsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd, opts, func(s *session) error {
				snap, err := s.lb.Settings().Snapshot()
				if err != nil {
					return storageError("settings unavailable", err)
				}
				return s.out.Success(snap, func(w io.Writer) { renderSettings(w, snap) })
			})
		},
	}
}

func newSettingsSetCommand(opts *RootOptions) *cobra.Command {
	var next settings.Settings

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Long: `Change one or more settings. Settings whose flag is not given keep
their current value.

Example:
  logbook settings set --action-log-max 10000 --trace-console`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !anyChanged(cmd, "trace-console", "action-log-max", "debug-trace-max", "failure-logs-per-run") {
				return fail(cmd, opts, inputError("nothing to set", fmt.Errorf("give at least one setting flag")))
			}
			return withLogbook(cmd, opts, func(s *session) error {
				cur, err := s.lb.Settings().Snapshot()
				if err != nil {
					return storageError("settings unavailable", err)
				}

				f := cmd.Flags()
				if f.Changed("trace-console") {
					cur.TraceConsole = next.TraceConsole
				}
				if f.Changed("action-log-max") {
					cur.ActionLogMax = next.ActionLogMax
				}
				if f.Changed("debug-trace-max") {
					cur.DebugTraceMax = next.DebugTraceMax
				}
				if f.Changed("failure-logs-per-run") {
					cur.FailureLogsPerRun = next.FailureLogsPerRun
				}

				saved, err := s.lb.Settings().Set(s.ctx, cur)
				if err != nil {
					return storageError("failed to save settings", err)
				}
				return s.out.Success(saved, func(w io.Writer) { renderSettings(w, saved) })
			})
		},
	}

	cmd.Flags().BoolVar(&next.TraceConsole, "trace-console", false, "mirror trace output to the process log")
	cmd.Flags().IntVar(&next.ActionLogMax, "action-log-max", settings.DefaultActionLogMax, "audit log cap")
	cmd.Flags().IntVar(&next.DebugTraceMax, "debug-trace-max", settings.DefaultDebugTraceMax, "debug trace cap")
	cmd.Flags().IntVar(&next.FailureLogsPerRun, "failure-logs-per-run", settings.DefaultFailureLogsPerRun, "failures reported per run")
	return cmd
}

func newSettingsResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd, opts, func(s *session) error {
				saved, err := s.lb.Settings().ResetDefaults(s.ctx)
				if err != nil {
					return storageError("failed to reset settings", err)
				}
				return s.out.Success(saved, func(w io.Writer) { renderSettings(w, saved) })
			})
		},
	}
}

func renderSettings(w io.Writer, s settings.Settings) {
	fmt.Fprintf(w, "traceConsole       %t\n", s.TraceConsole)
	fmt.Fprintf(w, "actionLogMax       %d\n", s.ActionLogMax)
	fmt.Fprintf(w, "debugTraceMax      %d\n", s.DebugTraceMax)
	fmt.Fprintf(w, "failureLogsPerRun  %d\n", s.FailureLogsPerRun)
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}
