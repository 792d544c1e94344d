// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/agchat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMalformed indicates the payload is not valid JSON.
	ErrMalformed = errors.New("malformed event payload")

	// ErrNotObject indicates the payload is valid JSON but not an object.
	ErrNotObject = errors.New("event payload is not an object")
)

// ParseError wraps a payload that could not be decoded.
type ParseError struct {
	Payload string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse event: %v (payload=%q)", e.Err, util.TruncateRunes(e.Payload, 80))
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// FIELD ALIASES
// =============================================================================

// Each field is looked up under its camelCase name first and its snake_case
// name second. Backends built on different AG-UI encoders disagree.
var (
	fieldToolCallID   = []string{"toolCallId", "tool_call_id"}
	fieldToolCallName = []string{"toolCallName", "tool_call_name"}
	fieldMessageID    = []string{"messageId", "message_id"}
	fieldThreadID     = []string{"threadId", "thread_id"}
	fieldRunID        = []string{"runId", "run_id"}
	fieldErrorMessage = []string{"message", "error"}
)

// =============================================================================
// PARSE
// =============================================================================

// Parse decodes a single payload into a typed Event.
//
// An invalid payload returns a *ParseError. A payload whose type is missing
// or outside the vocabulary is returned as Unknown with a nil error.
func Parse(payload string) (Event, error) {
	if !gjson.Valid(payload) {
		return nil, &ParseError{Payload: payload, Err: ErrMalformed}
	}
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return nil, &ParseError{Payload: payload, Err: ErrNotObject}
	}

	kind := root.Get("type")
	if kind.Type != gjson.String {
		return Unknown{Raw: payload}, nil
	}

	switch Type(kind.String()) {
	case TypeRunStarted:
		return RunStarted{
			ThreadID: str(root, fieldThreadID...),
			RunID:    str(root, fieldRunID...),
		}, nil
	case TypeRunFinished:
		return RunFinished{
			ThreadID: str(root, fieldThreadID...),
			RunID:    str(root, fieldRunID...),
		}, nil
	case TypeRunError:
		return RunError{Reason: str(root, fieldErrorMessage...)}, nil
	case TypeMessageStart:
		return MessageStart{
			MessageID: str(root, fieldMessageID...),
			Role:      str(root, "role"),
		}, nil
	case TypeMessageContent:
		return MessageContent{
			MessageID: str(root, fieldMessageID...),
			Delta:     str(root, "delta"),
		}, nil
	case TypeMessageEnd:
		return MessageEnd{MessageID: str(root, fieldMessageID...)}, nil
	case TypeToolCallStart:
		return ToolCallStart{
			ID:   str(root, fieldToolCallID...),
			Name: str(root, fieldToolCallName...),
		}, nil
	case TypeToolCallArgs:
		return ToolCallArgs{
			ID:    str(root, fieldToolCallID...),
			Delta: str(root, "delta"),
		}, nil
	case TypeToolCallResult:
		return ToolCallResult{
			ID:      str(root, fieldToolCallID...),
			Content: text(root.Get("content")),
		}, nil
	default:
		return Unknown{Kind: kind.String(), Raw: payload}, nil
	}
}

// str returns the first present field among names as a string.
func str(root gjson.Result, names ...string) string {
	for _, name := range names {
		if v := root.Get(name); v.Exists() {
			return text(v)
		}
	}
	return ""
}

// text returns a string value unquoted and any other value as raw JSON.
func text(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}
