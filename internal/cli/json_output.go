// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/agchat/internal/model"
	"github.com/jeranaias/agchat/internal/run"
)

// JSONResponse is the envelope every --json command writes.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed JSON response that still carries data.
func NewJSONErrorResponse(command string, data interface{}, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData is the data for the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// AskData is the data for the ask command.
type AskData struct {
	Prompt      string           `json:"prompt"`
	Response    string           `json:"response"`
	Phase       string           `json:"phase"`
	Reason      string           `json:"reason,omitempty"`
	ToolCalls   []run.ToolCall   `json:"tool_calls,omitempty"`
	Diagnostics []run.Diagnostic `json:"diagnostics,omitempty"`
	DurationMs  int64            `json:"duration_ms"`
}

// TranscriptData is the data for the replay command.
type TranscriptData struct {
	File        string           `json:"file"`
	Phase       string           `json:"phase"`
	Reason      string           `json:"reason,omitempty"`
	Messages    []model.Message  `json:"messages"`
	ToolCalls   []run.ToolCall   `json:"tool_calls,omitempty"`
	Diagnostics []run.Diagnostic `json:"diagnostics,omitempty"`
}

// ConfigData is the data for config get and show.
type ConfigData struct {
	Path   string      `json:"path"`
	Key    string      `json:"key,omitempty"`
	Value  interface{} `json:"value,omitempty"`
	Config interface{} `json:"config,omitempty"`
}
