package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/logbook/internal/eventlog"
	"github.com/roach88/logbook/internal/logbook"
)

// logTarget is the read and maintenance surface shared by the audit log
// and the gated debug trace.
type logTarget interface {
	List(ctx context.Context, opts eventlog.ListOptions) (eventlog.Page, error)
	Trim(ctx context.Context, opts eventlog.TrimOptions) (int, error)
	Clear(ctx context.Context) error
	ExportJSON(ctx context.Context, pretty bool) ([]byte, error)
	Count(ctx context.Context) (int, error)
}

// logDef describes one log to the shared subcommand builders.
type logDef struct {
	name        string
	defaultKind eventlog.Kind
	target      func(lb *logbook.Logbook) logTarget
	appendFn    func(ctx context.Context, lb *logbook.Logbook, drafts ...eventlog.Draft) (int, error)
	importFn    func(ctx context.Context, lb *logbook.Logbook, data []byte) (int, error)
}

// AppendResult is the JSON payload of append.
type AppendResult struct {
	Recorded bool `json:"recorded"`
	Total    int  `json:"total"`
}

// TotalResult is the JSON payload of trim and import.
type TotalResult struct {
	Total int `json:"total"`
}

// ExportResult is the JSON payload of export --out.
type ExportResult struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func newAppendCommand(opts *RootOptions, def logDef) *cobra.Command {
	flags := &draftFlags{}

	cmd := &cobra.Command{
		Use:   "append",
		Short: fmt.Sprintf("Append one entry to the %s log", def.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.draft(cmd)
			if err != nil {
				return fail(cmd, opts, inputError("invalid entry", err))
			}
			return withLogbook(cmd, opts, func(s *session) error {
				total, err := def.appendFn(s.ctx, s.lb, d)
				if err != nil {
					if errors.Is(err, logbook.ErrInvalidDraft) {
						return inputError("invalid entry", err)
					}
					return storageError("append failed", err)
				}

				res := AppendResult{Recorded: total > 0, Total: total}
				return s.out.Success(res, func(w io.Writer) {
					if !res.Recorded {
						fmt.Fprintf(w, "The %s log is disabled; nothing was recorded\n", def.name)
						return
					}
					fmt.Fprintf(w, "Appended to %s log (%d entries stored)\n", def.name, total)
				})
			})
		},
	}
	flags.register(cmd, string(def.defaultKind))
	return cmd
}

func newListCommand(opts *RootOptions, def logDef) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s entries, newest first", def.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts, err := flags.options()
			if err != nil {
				return fail(cmd, opts, inputError("invalid filter", err))
			}
			return withLogbook(cmd, opts, func(s *session) error {
				page, err := def.target(s.lb).List(s.ctx, listOpts)
				if err != nil {
					return storageError("list failed", err)
				}
				return s.out.Success(page, func(w io.Writer) {
					renderPage(w, page, max(0, flags.Offset))
				})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newTrimCommand(opts *RootOptions, def logDef) *cobra.Command {
	flags := &trimFlags{}

	cmd := &cobra.Command{
		Use:   "trim",
		Short: fmt.Sprintf("Drop old %s entries by age and/or count", def.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trimOpts, err := flags.options(cmd)
			if err != nil {
				return fail(cmd, opts, inputError("invalid trim", err))
			}
			return withLogbook(cmd, opts, func(s *session) error {
				total, err := def.target(s.lb).Trim(s.ctx, trimOpts)
				if err != nil {
					return storageError("trim failed", err)
				}
				return s.out.Success(TotalResult{Total: total}, func(w io.Writer) {
					fmt.Fprintf(w, "Trimmed %s log (%d entries stored)\n", def.name, total)
				})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newClearCommand(opts *RootOptions, def logDef) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: fmt.Sprintf("Remove every %s entry", def.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd, opts, func(s *session) error {
				if err := def.target(s.lb).Clear(s.ctx); err != nil {
					return storageError("clear failed", err)
				}
				return s.out.Success(TotalResult{Total: 0}, func(w io.Writer) {
					fmt.Fprintf(w, "Cleared %s log\n", def.name)
				})
			})
		},
	}
}

func newExportCommand(opts *RootOptions, def logDef) *cobra.Command {
	var (
		pretty bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: fmt.Sprintf("Export the %s log as a JSON array, oldest first", def.name),
		Long: fmt.Sprintf(`Export the whole %s log as a JSON array, oldest first.

Without --out the document is written to stdout as is, whatever --format says.

Examples:
  logbook %s export --pretty
  logbook %s export --out %s.json`, def.name, def.name, def.name, def.name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd, opts, func(s *session) error {
				data, err := def.target(s.lb).ExportJSON(s.ctx, pretty)
				if err != nil {
					return storageError("export failed", err)
				}

				if out == "" {
					_, err := fmt.Fprintln(s.out.Writer, string(data))
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write export", err).withErrCode(ErrCodeGeneric)
				}
				res := ExportResult{Path: out, Bytes: len(data)}
				return s.out.Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "Exported %s log to %s (%d bytes)\n", def.name, out, len(data))
				})
			})
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent with two spaces")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newImportCommand(opts *RootOptions, def logDef) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: fmt.Sprintf("Replace the %s log with an export document", def.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(cmd, opts, inputError("failed to read import file", err))
			}
			return withLogbook(cmd, opts, func(s *session) error {
				total, err := def.importFn(s.ctx, s.lb, data)
				if err != nil {
					if eventlog.IsImportError(err) {
						return WrapExitError(ExitCommandError, "invalid import document", err).withErrCode(ErrCodeImport)
					}
					return storageError("import failed", err)
				}
				return s.out.Success(TotalResult{Total: total}, func(w io.Writer) {
					fmt.Fprintf(w, "Imported into %s log (%d entries stored)\n", def.name, total)
				})
			})
		},
	}
}
