package logbook

import (
	"context"
	"log/slog"

	"github.com/roach88/logbook/internal/eventlog"
)

// AppendAudit checks drafts against the audit kinds and scopes and appends
// them with the cap from the actionLogMax setting. It fails with
// settings.ErrNotLoaded if the settings were never loaded.
func (lb *Logbook) AppendAudit(ctx context.Context, drafts ...eventlog.Draft) (int, error) {
	if err := checkDrafts(AuditName, drafts, eventlog.AuditKinds, eventlog.AuditScopes); err != nil {
		return 0, err
	}
	s, err := lb.settings.Snapshot()
	if err != nil {
		return 0, err
	}
	return lb.audit.Append(ctx, drafts, eventlog.AppendOptions{Max: s.ActionLogMax})
}

// AppendTrace checks drafts against the trace kinds and scopes and appends
// them with the cap from the debugTraceMax setting. Nothing is recorded
// while the trace is disabled. With traceConsole on, recorded drafts are
// mirrored to the process log.
func (lb *Logbook) AppendTrace(ctx context.Context, drafts ...eventlog.Draft) (int, error) {
	if err := checkDrafts(TraceName, drafts, eventlog.TraceKinds, eventlog.TraceScopes); err != nil {
		return 0, err
	}
	s, err := lb.settings.Snapshot()
	if err != nil {
		return 0, err
	}

	total, err := lb.trace.Append(ctx, drafts, eventlog.AppendOptions{Max: s.DebugTraceMax})
	if err != nil {
		return 0, err
	}
	if s.TraceConsole && total > 0 {
		for _, d := range drafts {
			slog.Info("trace",
				"kind", d.Kind,
				"scope", d.Scope,
				"message", d.Message,
			)
		}
	}
	return total, nil
}

// ImportAudit replaces the audit log with an export document.
func (lb *Logbook) ImportAudit(ctx context.Context, data []byte) (int, error) {
	s, err := lb.settings.Snapshot()
	if err != nil {
		return 0, err
	}
	return lb.audit.Import(ctx, data, eventlog.AppendOptions{Max: s.ActionLogMax})
}

// ImportTrace replaces the debug trace with an export document. It is a
// no-op while the trace is disabled.
func (lb *Logbook) ImportTrace(ctx context.Context, data []byte) (int, error) {
	s, err := lb.settings.Snapshot()
	if err != nil {
		return 0, err
	}
	return lb.trace.Import(ctx, data, eventlog.AppendOptions{Max: s.DebugTraceMax})
}

func checkDrafts(log string, drafts []eventlog.Draft, kinds []eventlog.Kind, scopes []eventlog.Scope) error {
	for _, d := range drafts {
		if !eventlog.ValidKind(d.Kind, kinds) {
			return &DraftError{Log: log, Field: "kind", Value: string(d.Kind)}
		}
		if !eventlog.ValidScope(d.Scope, scopes) {
			return &DraftError{Log: log, Field: "scope", Value: string(d.Scope)}
		}
	}
	return nil
}
