package settings

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Defaults and ranges of the numeric settings.
const (
	DefaultActionLogMax      = 5000
	DefaultDebugTraceMax     = 2000
	DefaultFailureLogsPerRun = 50

	MinLogMax            = 100
	MaxLogMax            = 50000
	MinFailureLogsPerRun = 0
	MaxFailureLogsPerRun = 50000
)

// Settings is one normalized snapshot.
type Settings struct {
	// TraceConsole mirrors trace and info output to the process log.
	TraceConsole bool `json:"traceConsole" yaml:"traceConsole"`

	// ActionLogMax caps the audit log.
	ActionLogMax int `json:"actionLogMax" yaml:"actionLogMax"`
	// DebugTraceMax caps the debug trace.
	DebugTraceMax int `json:"debugTraceMax" yaml:"debugTraceMax"`
	// FailureLogsPerRun caps failures a consumer reports per run.
	FailureLogsPerRun int `json:"failureLogsPerRun" yaml:"failureLogsPerRun"`
}

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{
		TraceConsole:      false,
		ActionLogMax:      DefaultActionLogMax,
		DebugTraceMax:     DefaultDebugTraceMax,
		FailureLogsPerRun: DefaultFailureLogsPerRun,
	}
}

// Normalized returns s with every numeric field clamped into its range.
func (s Settings) Normalized() Settings {
	s.ActionLogMax = clamp(s.ActionLogMax, MinLogMax, MaxLogMax)
	s.DebugTraceMax = clamp(s.DebugTraceMax, MinLogMax, MaxLogMax)
	s.FailureLogsPerRun = clamp(s.FailureLogsPerRun, MinFailureLogsPerRun, MaxFailureLogsPerRun)
	return s
}

// Normalize builds settings from an arbitrary stored JSON value.
//
// Missing fields take their default. Numbers are floored and clamped;
// numeric strings are parsed first; anything else non-numeric falls back to
// the default. traceConsole is truthy: false, 0, "", null and a missing
// field are false, everything else is true. A value that is not an object
// yields Defaults.
func Normalize(raw json.RawMessage) Settings {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Defaults()
	}

	d := Defaults()
	return Settings{
		TraceConsole:      truthy(fields["traceConsole"]),
		ActionLogMax:      clampField(fields, "actionLogMax", MinLogMax, MaxLogMax, d.ActionLogMax),
		DebugTraceMax:     clampField(fields, "debugTraceMax", MinLogMax, MaxLogMax, d.DebugTraceMax),
		FailureLogsPerRun: clampField(fields, "failureLogsPerRun", MinFailureLogsPerRun, MaxFailureLogsPerRun, d.FailureLogsPerRun),
	}
}

// clampField reads fields[name], treating a missing or null value as def.
func clampField(fields map[string]any, name string, lo, hi, def int) int {
	v, ok := fields[name]
	if !ok || v == nil {
		return def
	}
	return clampAny(v, lo, hi, def)
}

// clampAny floors and clamps a decoded JSON value. Values that do not read
// as a finite number return fallback.
func clampAny(v any, lo, hi, fallback int) int {
	var text string
	switch x := v.(type) {
	case json.Number:
		text = x.String()
	case string:
		text = strings.TrimSpace(x)
		if text == "" {
			return clamp(0, lo, hi)
		}
	case float64:
		text = strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return clamp(x, lo, hi)
	default:
		return fallback
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}

	f = math.Floor(f)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}
	return int(f)
}

// truthy applies loose boolean coercion to a decoded JSON value.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
