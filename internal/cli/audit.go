package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/logbook/internal/eventlog"
	"github.com/roach88/logbook/internal/logbook"
)

var auditDef = logDef{
	name:        "audit",
	defaultKind: eventlog.KindInfo,
	target:      func(lb *logbook.Logbook) logTarget { return lb.Audit() },
	appendFn: func(ctx context.Context, lb *logbook.Logbook, drafts ...eventlog.Draft) (int, error) {
		return lb.AppendAudit(ctx, drafts...)
	},
	importFn: func(ctx context.Context, lb *logbook.Logbook, data []byte) (int, error) {
		return lb.ImportAudit(ctx, data)
	},
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Work with the persistent audit log",
		Long: `Work with the persistent audit log.

Kinds: run, info, error. Scopes: logs, settings, background, ui, api.
Appends are capped by the actionLogMax setting.

Examples:
  logbook audit append --kind run --scope background --message "sync finished" --ok
  logbook audit list --limit 20 --kind error
  logbook audit trim --keep-last 1000`,
	}

	cmd.AddCommand(newAppendCommand(rootOpts, auditDef))
	cmd.AddCommand(newListCommand(rootOpts, auditDef))
	cmd.AddCommand(newTrimCommand(rootOpts, auditDef))
	cmd.AddCommand(newClearCommand(rootOpts, auditDef))
	cmd.AddCommand(newExportCommand(rootOpts, auditDef))
	cmd.AddCommand(newImportCommand(rootOpts, auditDef))

	return cmd
}
