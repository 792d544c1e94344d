// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package event defines the typed run events decoded from stream payloads.
//
// Each payload is a JSON object with a "type" discriminator. Parse maps the
// discriminator onto one of the concrete variants below; anything it does
// not recognise becomes Unknown, which is accepted rather than rejected.
package event

// =============================================================================
// EVENT TYPE VOCABULARY
// =============================================================================

// Type is the wire discriminator of an event.
type Type string

const (
	TypeRunStarted     Type = "RUN_STARTED"
	TypeMessageStart   Type = "TEXT_MESSAGE_START"
	TypeMessageContent Type = "TEXT_MESSAGE_CONTENT"
	TypeMessageEnd     Type = "TEXT_MESSAGE_END"
	TypeToolCallStart  Type = "TOOL_CALL_START"
	TypeToolCallArgs   Type = "TOOL_CALL_ARGS"
	TypeToolCallResult Type = "TOOL_CALL_RESULT"
	TypeRunFinished    Type = "RUN_FINISHED"
	TypeRunError       Type = "RUN_ERROR"
)

// Event is a decoded stream event. The set of implementations is closed.
type Event interface {
	Type() Type
	isEvent()
}

// =============================================================================
// RUN LIFECYCLE
// =============================================================================

// RunStarted marks the beginning of a run.
type RunStarted struct {
	ThreadID string
	RunID    string
}

func (RunStarted) Type() Type { return TypeRunStarted }
func (RunStarted) isEvent()   {}

// RunFinished marks successful completion of a run.
type RunFinished struct {
	ThreadID string
	RunID    string
}

func (RunFinished) Type() Type { return TypeRunFinished }
func (RunFinished) isEvent()   {}

// RunError reports an application-level failure of the run.
type RunError struct {
	Reason string
}

func (RunError) Type() Type { return TypeRunError }
func (RunError) isEvent()   {}

// =============================================================================
// TEXT MESSAGES
// =============================================================================

// MessageStart opens an assistant message.
type MessageStart struct {
	MessageID string
	Role      string
}

func (MessageStart) Type() Type { return TypeMessageStart }
func (MessageStart) isEvent()   {}

// MessageContent carries a text delta for the open assistant message.
type MessageContent struct {
	MessageID string
	Delta     string
}

func (MessageContent) Type() Type { return TypeMessageContent }
func (MessageContent) isEvent()   {}

// MessageEnd closes the open assistant message.
type MessageEnd struct {
	MessageID string
}

func (MessageEnd) Type() Type { return TypeMessageEnd }
func (MessageEnd) isEvent()   {}

// =============================================================================
// TOOL CALLS
// =============================================================================

// ToolCallStart announces (or re-arms) a tool invocation.
type ToolCallStart struct {
	ID   string
	Name string
}

func (ToolCallStart) Type() Type { return TypeToolCallStart }
func (ToolCallStart) isEvent()   {}

// ToolCallArgs carries an argument fragment for a tool invocation.
type ToolCallArgs struct {
	ID    string
	Delta string
}

func (ToolCallArgs) Type() Type { return TypeToolCallArgs }
func (ToolCallArgs) isEvent()   {}

// ToolCallResult carries the result of a tool invocation.
type ToolCallResult struct {
	ID      string
	Content string
}

func (ToolCallResult) Type() Type { return TypeToolCallResult }
func (ToolCallResult) isEvent()   {}

// =============================================================================
// UNKNOWN
// =============================================================================

// Unknown is any well-formed payload whose type is not in the vocabulary.
type Unknown struct {
	Kind string
	Raw  string
}

func (u Unknown) Type() Type { return Type(u.Kind) }
func (Unknown) isEvent()     {}
