// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package run

import "fmt"

// =============================================================================
// PHASE
// =============================================================================

// Phase is the lifecycle position of the current run.
type Phase int

const (
	// PhaseIdle means no run is active, or the last message has ended.
	PhaseIdle Phase = iota

	// PhaseSubmitted means a prompt was sent and nothing has arrived yet.
	PhaseSubmitted

	// PhaseStarted means the backend acknowledged the run.
	PhaseStarted

	// PhaseAwaitingMessage means a message was opened but has no text yet.
	PhaseAwaitingMessage

	// PhaseTyping means assistant text is streaming.
	PhaseTyping

	// PhaseCallingTool means a tool invocation is in progress.
	PhaseCallingTool

	// PhaseProcessingResult means a tool result arrived.
	PhaseProcessingResult

	// PhaseFinished is the successful terminal phase.
	PhaseFinished

	// PhaseErrored is the failed terminal phase.
	PhaseErrored
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitted:
		return "submitted"
	case PhaseStarted:
		return "started"
	case PhaseAwaitingMessage:
		return "awaiting_message"
	case PhaseTyping:
		return "typing"
	case PhaseCallingTool:
		return "calling_tool"
	case PhaseProcessingResult:
		return "processing_result"
	case PhaseFinished:
		return "finished"
	case PhaseErrored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// IsTerminal returns true for Finished and Errored.
func (p Phase) IsTerminal() bool {
	return p == PhaseFinished || p == PhaseErrored
}

// =============================================================================
// STATE
// =============================================================================

// State is the run status exposed in snapshots.
type State struct {
	Phase Phase `json:"phase"`

	// Tool is the tool name while Phase is PhaseCallingTool.
	Tool string `json:"tool,omitempty"`

	// Reason is the failure reason while Phase is PhaseErrored.
	Reason string `json:"reason,omitempty"`

	// Generation identifies the current run. It only ever increases.
	Generation uint64 `json:"generation"`

	// Running is true from submission until the run reaches a terminal
	// phase or is superseded. A run may pass through PhaseIdle while running.
	Running bool `json:"running"`
}

// StatusText returns the short status line shown next to the conversation.
func (s State) StatusText() string {
	switch s.Phase {
	case PhaseSubmitted:
		return "thinking..."
	case PhaseStarted:
		return "processing..."
	case PhaseAwaitingMessage, PhaseTyping:
		return "typing..."
	case PhaseCallingTool:
		return fmt.Sprintf("calling %s...", s.Tool)
	case PhaseProcessingResult:
		return "processing results..."
	case PhaseErrored:
		return "error"
	default:
		return "online"
	}
}
