// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package run

// DiagnosticKind classifies a non-fatal anomaly seen during a run.
type DiagnosticKind string

const (
	DiagParseError       DiagnosticKind = "parse_error"
	DiagUnknownEvent     DiagnosticKind = "unknown_event"
	DiagToolCall         DiagnosticKind = "tool_call"
	DiagAfterTerminal    DiagnosticKind = "after_terminal"
	DiagTransportFailure DiagnosticKind = "transport_failure"
	DiagUnterminated     DiagnosticKind = "unterminated"
	DiagSuperseded       DiagnosticKind = "superseded"
)

// DefaultMaxDiagnostics bounds the diagnostics kept in memory.
const DefaultMaxDiagnostics = 100

// Diagnostic is a recorded anomaly. Diagnostics never change the transcript.
type Diagnostic struct {
	Generation uint64         `json:"generation"`
	Kind       DiagnosticKind `json:"kind"`
	Detail     string         `json:"detail"`
}

// diagLog is a bounded, oldest-first list of diagnostics.
type diagLog struct {
	items []Diagnostic
	max   int
}

func (d *diagLog) add(diag Diagnostic) {
	if d.max <= 0 {
		return
	}
	if len(d.items) >= d.max {
		copy(d.items, d.items[1:])
		d.items = d.items[:len(d.items)-1]
	}
	d.items = append(d.items, diag)
}

func (d *diagLog) list() []Diagnostic {
	if len(d.items) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

func (d *diagLog) reset() {
	d.items = nil
}
