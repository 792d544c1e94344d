// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcript.go - Rendering conversations, tool calls and diagnostics.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/jeranaias/agchat/internal/model"
	"github.com/jeranaias/agchat/internal/run"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// newMarkdownRenderer returns a glamour renderer, or nil if glamour could
// not be set up.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders content with r, falling back to the raw text.
func renderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript writes every message in snap. Assistant text goes
// through md when it is non-nil.
func renderTranscript(w io.Writer, snap run.Snapshot, md *glamour.TermRenderer) {
	for i, msg := range snap.Messages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, roleLabel(msg))

		content := msg.Content
		if msg.Placeholder {
			fmt.Fprintln(w, DimStyle.Render(content))
			continue
		}
		if msg.Role == model.RoleAssistant && md != nil {
			fmt.Fprint(w, renderMarkdown(md, content))
			continue
		}
		fmt.Fprintln(w, content)
	}
}

func roleLabel(msg model.Message) string {
	label := msg.Role.DisplayName()
	if msg.Open {
		label += " (streaming)"
	}
	if msg.Role == model.RoleUser {
		return UserStyle.Render(label)
	}
	return AssistantStyle.Render(label)
}

// renderStatus writes the run phase and, for failed runs, the reason.
func renderStatus(w io.Writer, state run.State) {
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Phase"), state.Phase)
	if state.Phase == run.PhaseErrored {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Reason"), ErrorStyle.Render(state.Reason))
	}
}

// =============================================================================
// TOOL CALLS
// =============================================================================

// renderToolCalls writes one block per tool call. JSON arguments and
// results are pretty-printed.
func renderToolCalls(w io.Writer, calls []run.ToolCall) {
	if len(calls) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No tool calls."))
		return
	}
	for _, tc := range calls {
		fmt.Fprintf(w, "%s %s %s\n",
			TitleStyle.Render(tc.Name),
			DimStyle.Render(tc.ID),
			toolStatusLabel(tc.Status))
		if tc.Args != "" {
			fmt.Fprintln(w, indent(formatPayload(tc.Args), "  "))
		}
		if tc.HasResult {
			fmt.Fprintln(w, DimStyle.Render("  result:"))
			fmt.Fprintln(w, indent(formatPayload(tc.Result), "    "))
		}
	}
}

func toolStatusLabel(status run.ToolStatus) string {
	if status == run.ToolCompleted {
		return AssistantStyle.Render("[" + status.String() + "]")
	}
	return WarningStyle.Render("[" + status.String() + "]")
}

// formatPayload pretty-prints s if it is JSON and returns it unchanged
// otherwise.
func formatPayload(s string) string {
	if !gjson.Valid(s) {
		return s
	}
	return strings.TrimRight(string(pretty.Pretty([]byte(s))), "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// renderDiagnostics writes one line per diagnostic.
func renderDiagnostics(w io.Writer, diags []run.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No diagnostics."))
		return
	}
	for _, d := range diags {
		fmt.Fprintf(w, "%s gen=%d %s\n",
			WarningStyle.Render(fmt.Sprintf("[%s]", d.Kind)),
			d.Generation,
			d.Detail)
	}
}
