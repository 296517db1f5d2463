package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/logbook/internal/config"
	"github.com/roach88/logbook/internal/logbook"
)

// session is one command invocation against an opened logbook.
type session struct {
	ctx context.Context
	lb  *logbook.Logbook
	out *OutputFormatter
}

// loadConfig layers the config file, LOGBOOK_* variables and global flags.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	config.FromEnv(&cfg)

	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if opts.Path != "" {
		cfg.Storage.Path = opts.Path
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogging installs the process logger on w and returns its level so
// it can be raised once settings are known.
func setupLogging(w io.Writer, cfg config.Logging, verbose bool) *slog.LevelVar {
	level := new(slog.LevelVar)
	if l, err := cfg.SlogLevel(); err == nil {
		level.Set(l)
	}
	if verbose {
		level.Set(slog.LevelDebug)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return level
}

// withLogbook opens the configured logbook, runs fn and closes it. Any
// failure is written through the output formatter, so --format json yields
// an error envelope on stdout.
func withLogbook(cmd *cobra.Command, opts *RootOptions, fn func(s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(cmd, opts)
	if err := runSession(ctx, cmd, opts, out, fn); err != nil {
		return report(out, err)
	}
	return nil
}

// newFormatter writes results to the command's stdout and diagnostics to
// its stderr.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// fail reports an error raised before the logbook is opened.
func fail(cmd *cobra.Command, opts *RootOptions, err error) error {
	return report(newFormatter(cmd, opts), err)
}

func runSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions, out *OutputFormatter, fn func(s *session) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err).withErrCode(ErrCodeConfig)
	}

	level := setupLogging(cmd.ErrOrStderr(), cfg.Logging, opts.Verbose)
	out.VerboseLog("Using %s backend at %s", cfg.Storage.Backend, cfg.StoragePath())

	lb, err := logbook.Open(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open logbook", err).withErrCode(ErrCodeOpen)
	}
	defer lb.Close()

	// traceConsole mirrors trace and info output, so it also opens up debug logs.
	if s, err := lb.Settings().Snapshot(); err == nil && s.TraceConsole {
		level.Set(slog.LevelDebug)
	}

	return fn(&session{ctx: ctx, lb: lb, out: out})
}

// report writes err through out and marks it reported.
func report(out *OutputFormatter, err error) error {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = WrapExitError(ExitFailure, "command failed", err).withErrCode(ErrCodeGeneric)
	}

	if werr := out.Error(GetErrCode(exitErr), exitErr.Error(), nil); werr != nil {
		return err
	}
	exitErr.reported = true
	return exitErr
}

// storageError wraps a failed read or write.
func storageError(message string, err error) error {
	return WrapExitError(ExitFailure, message, err).withErrCode(ErrCodeStorage)
}

// inputError reports a rejected flag or argument.
func inputError(message string, err error) error {
	return WrapExitError(ExitCommandError, message, err).withErrCode(ErrCodeInvalidInput)
}
