// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package run

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// TOOL CALL TYPES
// =============================================================================

// ToolStatus is the lifecycle state of a single tool call.
type ToolStatus int

const (
	ToolCalling ToolStatus = iota
	ToolCompleted
)

// String returns the string representation of the status.
func (s ToolStatus) String() string {
	switch s {
	case ToolCalling:
		return "calling"
	case ToolCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ToolCall is one ID-tracked tool invocation within a run.
type ToolCall struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Args      string     `json:"args"`
	Result    string     `json:"result,omitempty"`
	HasResult bool       `json:"has_result,omitempty"`
	Status    ToolStatus `json:"status"`
}

// ArgsMode selects how argument deltas combine.
type ArgsMode int

const (
	// ArgsAppend concatenates each delta onto the buffer.
	ArgsAppend ArgsMode = iota

	// ArgsReplace keeps only the most recent delta. Some backends send the
	// full argument text on every event.
	ArgsReplace
)

// String returns the string representation of the mode.
func (m ArgsMode) String() string {
	if m == ArgsReplace {
		return "replace"
	}
	return "append"
}

// ParseArgsMode parses "append" or "replace".
func ParseArgsMode(s string) (ArgsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return ArgsAppend, nil
	case "replace":
		return ArgsReplace, nil
	default:
		return ArgsAppend, fmt.Errorf("invalid args mode %q (must be append or replace)", s)
	}
}

// =============================================================================
// REGISTRY ERRORS
// =============================================================================

var (
	// ErrUnknownToolCall indicates an event referenced an ID never started.
	ErrUnknownToolCall = errors.New("unknown tool call id")

	// ErrToolCallCompleted indicates an event would regress a completed call.
	ErrToolCallCompleted = errors.New("tool call already completed")

	// ErrEmptyToolCallID indicates a start event carried no ID.
	ErrEmptyToolCallID = errors.New("tool call id is empty")
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry tracks the tool calls of a single run in insertion order.
// Lookups by ID are O(1). Entries are only created by Start.
type Registry struct {
	order []string
	byID  map[string]*ToolCall
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*ToolCall)}
}

// Start inserts a new call or re-arms an existing one still in progress.
// Re-arming resets the argument buffer and keeps the original position.
// A completed call is left untouched.
func (r *Registry) Start(id, name string) error {
	if id == "" {
		return ErrEmptyToolCallID
	}
	if tc, ok := r.byID[id]; ok {
		if tc.Status == ToolCompleted {
			return fmt.Errorf("start %s: %w", id, ErrToolCallCompleted)
		}
		tc.Args = ""
		tc.Status = ToolCalling
		if tc.Name == "" {
			tc.Name = name
		}
		return nil
	}
	r.byID[id] = &ToolCall{ID: id, Name: name, Status: ToolCalling}
	r.order = append(r.order, id)
	return nil
}

// AddArgs applies an argument delta to a call in progress.
func (r *Registry) AddArgs(id, delta string, mode ArgsMode) error {
	tc, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("args %s: %w", id, ErrUnknownToolCall)
	}
	if tc.Status == ToolCompleted {
		return fmt.Errorf("args %s: %w", id, ErrToolCallCompleted)
	}
	if mode == ArgsReplace {
		tc.Args = delta
	} else {
		tc.Args += delta
	}
	return nil
}

// Complete records a call's result. A repeated result overwrites the
// previous one.
func (r *Registry) Complete(id, content string) error {
	tc, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("result %s: %w", id, ErrUnknownToolCall)
	}
	tc.Result = content
	tc.HasResult = true
	tc.Status = ToolCompleted
	return nil
}

// Get returns a copy of the call with the given ID.
func (r *Registry) Get(id string) (ToolCall, bool) {
	tc, ok := r.byID[id]
	if !ok {
		return ToolCall{}, false
	}
	return *tc, true
}

// Len returns the number of calls.
func (r *Registry) Len() int {
	return len(r.order)
}

// List returns copies of all calls in insertion order.
func (r *Registry) List() []ToolCall {
	out := make([]ToolCall, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Reset removes all calls.
func (r *Registry) Reset() {
	r.order = nil
	r.byID = make(map[string]*ToolCall)
}
