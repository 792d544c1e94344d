// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/agchat/internal/config"
	"github.com/jeranaias/agchat/internal/model"
	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/transport"
)

// isolate points HOME at an empty directory and clears AGCHAT_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"AGCHAT_ENDPOINT", "AGCHAT_PROMPT_PARAM", "AGCHAT_ARGS_MODE", "AGCHAT_LOG_FILE", "AGCHAT_VERBOSE"} {
		t.Setenv(key, "")
	}
	return home
}

func writeCapture(t *testing.T, payloads ...string) string {
	t.Helper()
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: " + p + "\n\n")
	}
	path := filepath.Join(t.TempDir(), "capture.log")
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCmd  Command
		validate func(*testing.T, Args)
	}{
		{
			name:    "no args starts the TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "ask joins the question",
			argv:    []string{"ask", "what", "is", "up"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "what is up" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"ask", "--json", "hi", "--endpoint", "http://x/agent", "-v"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.JSON || !a.Verbose {
					t.Errorf("JSON=%v Verbose=%v", a.JSON, a.Verbose)
				}
				if a.Endpoint != "http://x/agent" {
					t.Errorf("Endpoint = %q", a.Endpoint)
				}
				if a.Query != "hi" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:    "equals form",
			argv:    []string{"--config=/tmp/a.toml", "config", "show"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/a.toml" || a.Subcommand != "show" {
					t.Errorf("ConfigPath=%q Subcommand=%q", a.ConfigPath, a.Subcommand)
				}
			},
		},
		{
			name:    "double dash stops flag parsing",
			argv:    []string{"ask", "--", "--json", "is", "a", "flag"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.JSON {
					t.Error("JSON should not be set after --")
				}
				if a.Query != "--json is a flag" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:    "replay with prompt",
			argv:    []string{"replay", "trace.log", "--prompt", "hello"},
			wantCmd: CmdReplay,
			validate: func(t *testing.T, a Args) {
				if a.File != "trace.log" || a.Query != "hello" {
					t.Errorf("File=%q Query=%q", a.File, a.Query)
				}
			},
		},
		{
			name:    "replay default prompt",
			argv:    []string{"replay", "trace.log"},
			wantCmd: CmdReplay,
			validate: func(t *testing.T, a Args) {
				if a.Query != "replay" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:    "config set joins the value",
			argv:    []string{"config", "set", "stream.fallback_text", "try", "again"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.ConfigKey != "stream.fallback_text" || a.ConfigVal != "try again" {
					t.Errorf("ConfigKey=%q ConfigVal=%q", a.ConfigKey, a.ConfigVal)
				}
			},
		},
		{
			name:    "unknown word is a TUI prompt",
			argv:    []string{"Hello", "there"},
			wantCmd: CmdTUI,
			validate: func(t *testing.T, a Args) {
				if a.Query != "Hello there" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{name: "version", argv: []string{"--version"}, wantCmd: CmdVersion},
		{name: "help", argv: []string{"-h"}, wantCmd: CmdHelp},
		{name: "chat", argv: []string{"CHAT"}, wantCmd: CmdChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("command = %v, want %v", cmd, tt.wantCmd)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"file.log", "--prompt", "hi", "--quiet", "--mode=replace", "--json=false", "extra"})

	if got := p.Positional(0); got != "file.log" {
		t.Errorf("Positional(0) = %q", got)
	}
	if got := p.Positional(1); got != "extra" {
		t.Errorf("Positional(1) = %q", got)
	}
	if got := p.Positional(5); got != "" {
		t.Errorf("Positional(5) = %q, want empty", got)
	}
	if got := p.PositionalFrom(1); len(got) != 1 || got[0] != "extra" {
		t.Errorf("PositionalFrom(1) = %v", got)
	}
	if p.PositionalFrom(9) != nil {
		t.Error("PositionalFrom past the end should be nil")
	}
	if got := p.Flag("prompt"); got != "hi" {
		t.Errorf("Flag(prompt) = %q", got)
	}
	if got := p.Flag("mode"); got != "replace" {
		t.Errorf("Flag(mode) = %q", got)
	}
	if got := p.FlagOrDefault("missing", "dflt"); got != "dflt" {
		t.Errorf("FlagOrDefault = %q", got)
	}
	if !p.BoolFlag("quiet") {
		t.Error("BoolFlag(quiet) should be true")
	}
	if p.BoolFlag("json") {
		t.Error("BoolFlag(json) should be false for --json=false")
	}
}

// =============================================================================
// REPLY PRINTER
// =============================================================================

func assistant(id, content string, placeholder bool) model.Message {
	return model.Message{ID: id, Role: model.RoleAssistant, Content: content, Placeholder: placeholder}
}

func TestReplyPrinter_PrintsOnlyNewText(t *testing.T) {
	var out, status bytes.Buffer
	p := newReplyPrinter(&out, &status)
	user := model.Message{ID: "u1", Role: model.RoleUser, Content: "hello"}

	p.Update(run.Snapshot{Seq: 1, Messages: []model.Message{user, assistant("a1", "Thinking.", true)}})
	p.Update(run.Snapshot{Seq: 2, Messages: []model.Message{user, assistant("a1", "Hi", false)}})
	p.Update(run.Snapshot{Seq: 3, Messages: []model.Message{user, assistant("a1", "Hi there", false)}})
	// A stale snapshot changes nothing.
	p.Update(run.Snapshot{Seq: 2, Messages: []model.Message{user, assistant("a1", "Hi", false)}})
	// Content replaced by fallback text is printed again in full.
	p.Update(run.Snapshot{Seq: 4, Messages: []model.Message{user, assistant("a1", "Sorry", false)}})
	p.Finish()

	if got, want := out.String(), "Hi there\nSorry\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if strings.Contains(out.String(), "Thinking") {
		t.Error("placeholder text must not be printed")
	}
}

func TestReplyPrinter_SeparatesMessages(t *testing.T) {
	var out bytes.Buffer
	p := newReplyPrinter(&out, nil)

	p.Update(run.Snapshot{Seq: 1, Messages: []model.Message{assistant("a1", "one", false)}})
	p.Update(run.Snapshot{Seq: 2, Messages: []model.Message{assistant("a1", "one", false), assistant("a2", "two", false)}})
	p.Finish()

	if got, want := out.String(), "one\n\ntwo\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestReplyPrinter_ToolNotes(t *testing.T) {
	var out, status bytes.Buffer
	p := newReplyPrinter(&out, &status)

	calling := run.ToolCall{ID: "t1", Name: "search", Status: run.ToolCalling}
	done := calling
	done.Status = run.ToolCompleted

	p.Update(run.Snapshot{Seq: 1, ToolCalls: []run.ToolCall{calling}})
	p.Update(run.Snapshot{Seq: 2, ToolCalls: []run.ToolCall{calling}})
	p.Update(run.Snapshot{Seq: 3, ToolCalls: []run.ToolCall{done}})

	got := status.String()
	if strings.Count(got, "search ...") != 1 {
		t.Errorf("expected one calling note, got %q", got)
	}
	if !strings.Contains(got, "search done") {
		t.Errorf("expected a completion note, got %q", got)
	}
	if out.Len() != 0 {
		t.Errorf("tool notes leaked to stdout: %q", out.String())
	}
}

// =============================================================================
// REPLAY
// =============================================================================

var replayStream = []string{
	`{"type":"RUN_STARTED","threadId":"t","runId":"r"}`,
	`{"type":"TEXT_MESSAGE_START","messageId":"a1","role":"assistant"}`,
	`{"type":"TEXT_MESSAGE_CONTENT","messageId":"a1","delta":"Checking"}`,
	`{"type":"TOOL_CALL_START","toolCallId":"c1","toolCallName":"lookup"}`,
	`{"type":"TOOL_CALL_ARGS","toolCallId":"c1","delta":"{\"q\":"}`,
	`{"type":"TOOL_CALL_ARGS","toolCallId":"c1","delta":"\"weather\"}"}`,
	`{"type":"TOOL_CALL_END","toolCallId":"c1"}`,
	`{"type":"TOOL_CALL_RESULT","toolCallId":"c1","content":"sunny"}`,
	`{"type":"SOMETHING_NEW"}`,
	`{"type":"TEXT_MESSAGE_CONTENT","messageId":"a1","delta":" done"}`,
	`{"type":"TEXT_MESSAGE_END","messageId":"a1"}`,
	`{"type":"RUN_FINISHED","threadId":"t","runId":"r"}`,
}

func TestHandleReplayCommand_JSON(t *testing.T) {
	isolate(t)
	path := writeCapture(t, replayStream...)

	var out bytes.Buffer
	err := HandleReplayCommand(Args{File: path, Query: "weather?", JSON: true}, &out)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    TranscriptData `json:"data"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if resp.Data.Phase != run.PhaseFinished.String() {
		t.Errorf("phase = %q", resp.Data.Phase)
	}
	if len(resp.Data.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(resp.Data.Messages))
	}
	if resp.Data.Messages[0].Content != "weather?" {
		t.Errorf("user prompt = %q", resp.Data.Messages[0].Content)
	}
	if resp.Data.Messages[1].Content != "Checking done" {
		t.Errorf("reply = %q", resp.Data.Messages[1].Content)
	}
	if len(resp.Data.ToolCalls) != 1 || resp.Data.ToolCalls[0].Args != `{"q":"weather"}` || resp.Data.ToolCalls[0].Result != "sunny" {
		t.Errorf("tool calls = %+v", resp.Data.ToolCalls)
	}
	if len(resp.Data.Diagnostics) == 0 {
		t.Error("expected a diagnostic for the unknown event")
	}
}

func TestHandleReplayCommand_Text(t *testing.T) {
	isolate(t)
	path := writeCapture(t, replayStream...)

	var out bytes.Buffer
	if err := HandleReplayCommand(Args{File: path, Query: "weather?"}, &out); err != nil {
		t.Fatalf("replay: %v", err)
	}
	got := out.String()
	for _, want := range []string{"weather?", "Checking done", "lookup", `"weather"`, "sunny", "unknown_event"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestHandleReplayCommand_RunError(t *testing.T) {
	isolate(t)
	path := writeCapture(t,
		`{"type":"RUN_STARTED"}`,
		`{"type":"RUN_ERROR","message":"model overloaded"}`,
	)

	var out bytes.Buffer
	if err := HandleReplayCommand(Args{File: path, Query: "q", JSON: true}, &out); err != nil {
		t.Fatalf("replay: %v", err)
	}
	var resp struct {
		Data TranscriptData `json:"data"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Phase != run.PhaseErrored.String() || resp.Data.Reason != "model overloaded" {
		t.Errorf("phase=%q reason=%q", resp.Data.Phase, resp.Data.Reason)
	}
}

func TestHandleReplayCommand_MissingFile(t *testing.T) {
	isolate(t)

	err := HandleReplayCommand(Args{}, &bytes.Buffer{})
	if GetExitCode(err) != ExitUsageError {
		t.Errorf("no file: exit code = %d, want %d", GetExitCode(err), ExitUsageError)
	}

	err = HandleReplayCommand(Args{File: filepath.Join(t.TempDir(), "nope.log")}, &bytes.Buffer{})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func TestHandleConfigCommand_SetGet(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	var out bytes.Buffer
	if err := HandleConfigCommand(Args{ConfigPath: path, Subcommand: "init"}, &out); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := HandleConfigCommand(Args{ConfigPath: path, Subcommand: "init"}, &out); err == nil {
		t.Error("second init should fail")
	}

	set := Args{ConfigPath: path, Subcommand: "set", ConfigKey: "stream.args_mode", ConfigVal: "replace"}
	if err := HandleConfigCommand(set, &out); err != nil {
		t.Fatalf("set: %v", err)
	}

	out.Reset()
	get := Args{ConfigPath: path, Subcommand: "get", ConfigKey: "stream.args_mode"}
	if err := HandleConfigCommand(get, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "replace" {
		t.Errorf("get = %q, want replace", got)
	}

	loaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ArgsMode() != run.ArgsReplace {
		t.Errorf("saved args mode = %v", loaded.ArgsMode())
	}
}

func TestHandleConfigCommand_Errors(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	tests := []struct {
		name string
		args Args
		code int
	}{
		{"unknown subcommand", Args{ConfigPath: path, Subcommand: "frob"}, ExitUsageError},
		{"get without key", Args{ConfigPath: path, Subcommand: "get"}, ExitUsageError},
		{"unknown key", Args{ConfigPath: path, Subcommand: "set", ConfigKey: "stream.nope", ConfigVal: "1"}, ExitUsageError},
		{"invalid value", Args{ConfigPath: path, Subcommand: "set", ConfigKey: "stream.args_mode", ConfigVal: "merge"}, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleConfigCommand(tt.args, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := GetExitCode(err); code != tt.code {
				t.Errorf("exit code = %d, want %d (%v)", code, tt.code, err)
			}
		})
	}
}

func TestHandleConfigCommand_ShowJSON(t *testing.T) {
	isolate(t)
	t.Setenv("AGCHAT_ENDPOINT", "http://localhost:9000/agent")

	var out bytes.Buffer
	if err := HandleConfigCommand(Args{JSON: true}, &out); err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Data struct {
			Config config.Config `json:"config"`
		} `json:"data"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Config.Backend.Endpoint != "http://localhost:9000/agent" {
		t.Errorf("endpoint = %q", resp.Data.Config.Backend.Endpoint)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", ErrMissingArgument("file", ""), ExitUsageError},
		{"config", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}), ExitConfigError},
		{"transport", &transport.TransportError{Err: transport.ErrBadStatus}, ExitNetworkError},
		{"run transport", &RunError{Reason: run.ReasonTransport}, ExitNetworkError},
		{"run", &RunError{Reason: "overloaded"}, ExitRunError},
		{"reported", &reportedError{&RunError{Reason: "x"}}, ExitRunError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDisplayErrorJSON(t *testing.T) {
	var out bytes.Buffer
	DisplayErrorJSON(&out, &ValidationError{Field: "file", Reason: "required", Example: "agchat replay x"})

	var got map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["success"] != false || got["error_type"] != "validation_error" || got["field"] != "file" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestRequireEndpoint(t *testing.T) {
	cfg := config.Default()
	if err := RequireEndpoint(cfg); GetExitCode(err) != ExitUsageError {
		t.Errorf("empty endpoint: %v", err)
	}
	cfg.Backend.Endpoint = "http://localhost/agent"
	if err := RequireEndpoint(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPrintChatHelp_SeparatesCancelFromNew(t *testing.T) {
	var out bytes.Buffer
	printChatHelp(&out)
	help := out.String()

	if !strings.Contains(help, "/new") {
		t.Errorf("help does not list /new:\n%s", help)
	}
	if !strings.Contains(help, "Ctrl+C stops the current reply and keeps the conversation") {
		t.Errorf("help does not describe Ctrl+C:\n%s", help)
	}
}
