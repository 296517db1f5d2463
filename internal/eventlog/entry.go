package eventlog

import "golang.org/x/text/unicode/norm"

// Kind classifies an entry.
type Kind string

const (
	KindRun   Kind = "run"
	KindInfo  Kind = "info"
	KindError Kind = "error"
	KindDebug Kind = "debug"
)

// Scope names the subsystem that produced an entry.
type Scope string

const (
	ScopeLogs       Scope = "logs"
	ScopeSettings   Scope = "settings"
	ScopeBackground Scope = "background"
	ScopeUI         Scope = "ui"
	ScopeAPI        Scope = "api"
	ScopePanel      Scope = "panel"
	ScopeDemo       Scope = "demo"
)

// Kinds and scopes accepted by the two logs.
var (
	AuditKinds  = []Kind{KindRun, KindInfo, KindError}
	TraceKinds  = []Kind{KindDebug, KindInfo, KindError}
	AuditScopes = []Scope{ScopeLogs, ScopeSettings, ScopeBackground, ScopeUI, ScopeAPI}
	TraceScopes = []Scope{ScopeBackground, ScopePanel, ScopeSettings, ScopeLogs, ScopeDemo, ScopeUI, ScopeAPI}
)

// Entry is one stored event. Entries are never modified after they are
// written.
type Entry struct {
	ID      string         `json:"id"`
	Ts      int64          `json:"ts"`
	Kind    Kind           `json:"kind"`
	Scope   Scope          `json:"scope"`
	Message string         `json:"message"`
	OK      *bool          `json:"ok,omitempty"`
	Status  *int           `json:"status,omitempty"`
	Error   string         `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Draft is an entry as supplied by a caller, before id and ts exist.
type Draft struct {
	Kind    Kind
	Scope   Scope
	Message string
	OK      *bool
	Status  *int
	Error   string
	Meta    map[string]any
}

// stamp turns d into a stored entry. Messages are NFC-normalized so
// visually identical text exports byte-identically.
func (d Draft) stamp(id string, ts int64) Entry {
	return Entry{
		ID:      id,
		Ts:      ts,
		Kind:    d.Kind,
		Scope:   d.Scope,
		Message: norm.NFC.String(d.Message),
		OK:      d.OK,
		Status:  d.Status,
		Error:   d.Error,
		Meta:    d.Meta,
	}
}

// Bool returns a pointer to b, for Draft.OK.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n, for Draft.Status and TrimOptions.KeepLast.
func Int(n int) *int { return &n }

// ValidKind reports whether k is in kinds.
func ValidKind(k Kind, kinds []Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

// ValidScope reports whether s is in scopes.
func ValidScope(s Scope, scopes []Scope) bool {
	for _, v := range scopes {
		if v == s {
			return true
		}
	}
	return false
}
