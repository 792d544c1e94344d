// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package run

import "github.com/jeranaias/agchat/internal/model"

// Snapshot is an immutable view of the machine after one step.
// It shares no memory with the machine.
type Snapshot struct {
	// Seq increases by one for every step that produced this view.
	Seq uint64 `json:"seq"`

	State         State           `json:"state"`
	Messages      []model.Message `json:"messages"`
	ToolCalls     []ToolCall      `json:"tool_calls"`
	OpenMessageID string          `json:"open_message_id,omitempty"`
	Diagnostics   []Diagnostic    `json:"diagnostics,omitempty"`
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	openID := ""
	if m.open() != nil {
		openID = m.openID
	}
	return Snapshot{
		Seq:           m.seq,
		State:         m.state,
		Messages:      m.conv.Clone(),
		ToolCalls:     m.tools.List(),
		OpenMessageID: openID,
		Diagnostics:   m.diags.list(),
	}
}

// Status returns the status line for the run.
func (s Snapshot) Status() string {
	return s.State.StatusText()
}

// Message returns the message with the given ID.
func (s Snapshot) Message(id string) (model.Message, bool) {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return model.Message{}, false
}

// OpenMessage returns the assistant message still receiving content.
func (s Snapshot) OpenMessage() (model.Message, bool) {
	if s.OpenMessageID == "" {
		return model.Message{}, false
	}
	return s.Message(s.OpenMessageID)
}

// LastAssistant returns the most recent assistant message.
func (s Snapshot) LastAssistant() (model.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == model.RoleAssistant {
			return s.Messages[i], true
		}
	}
	return model.Message{}, false
}

// ToolCall returns the tool call with the given ID.
func (s Snapshot) ToolCall(id string) (ToolCall, bool) {
	for _, tc := range s.ToolCalls {
		if tc.ID == id {
			return tc, true
		}
	}
	return ToolCall{}, false
}
