// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/ui/styles"
	"github.com/jeranaias/agchat/internal/util"
)

// =============================================================================
// TOOL CALL VIEW
// =============================================================================

// ToolCallView displays one tool call: its name, status, arguments and
// result. Collapsed, it shows a one-line summary.
type ToolCallView struct {
	call run.ToolCall

	expanded     bool
	maxCollapsed int // preview width in runes when collapsed
	plain        bool
	width        int

	theme *styles.Theme
}

// NewToolCallView creates a view for call.
func NewToolCallView(theme *styles.Theme, call run.ToolCall) *ToolCallView {
	return &ToolCallView{
		call:         call,
		theme:        theme,
		maxCollapsed: 60,
		width:        80,
	}
}

// SetCall replaces the displayed call, keeping the expanded state.
func (v *ToolCallView) SetCall(call run.ToolCall) {
	v.call = call
}

// SetWidth sets the display width.
func (v *ToolCallView) SetWidth(width int) {
	v.width = width
}

// SetPlain disables syntax highlighting.
func (v *ToolCallView) SetPlain(plain bool) {
	v.plain = plain
}

// Toggle expands or collapses the view.
func (v *ToolCallView) Toggle() {
	v.expanded = !v.expanded
}

// IsExpanded returns whether the view is expanded.
func (v *ToolCallView) IsExpanded() bool {
	return v.expanded
}

// SetExpanded sets the expanded state.
func (v *ToolCallView) SetExpanded(expanded bool) {
	v.expanded = expanded
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the tool call.
func (v *ToolCallView) View() string {
	if v.call.ID == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(v.header())

	if v.expanded {
		v.writeSection(&b, "args", v.call.Args)
		if v.call.HasResult {
			v.writeSection(&b, "result", v.call.Result)
		}
	} else if preview := v.preview(); preview != "" {
		b.WriteString("\n")
		b.WriteString(v.theme.ToolLabel.Render("  " + preview))
	}

	box := v.theme.ToolBox
	if v.width > 0 {
		box = box.Width(v.width - box.GetHorizontalFrameSize())
	}
	return box.Render(b.String())
}

// header renders the status indicator and tool name.
func (v *ToolCallView) header() string {
	var icon string
	if v.call.Status == run.ToolCompleted {
		icon = v.theme.ToolDone.Render(styles.StatusIndicators.Success)
	} else {
		icon = v.theme.ToolCalling.Render(styles.StatusIndicators.Active)
	}

	name := v.call.Name
	if name == "" {
		name = v.call.ID
	}
	hint := " [+]"
	if v.expanded {
		hint = " [-]"
	}
	title := util.TruncateWidth(name, v.innerWidth()-util.StringWidth(hint)-6)
	return icon + " " + v.theme.AssistantLabel.Render(title) +
		v.theme.ToolLabel.Render(" "+v.call.Status.String()+hint)
}

// writeSection renders a labelled code block.
func (v *ToolCallView) writeSection(b *strings.Builder, label, content string) {
	b.WriteString("\n")
	b.WriteString(v.theme.ToolLabel.Render(label + ":"))
	if strings.TrimSpace(content) == "" {
		b.WriteString(v.theme.Placeholder.Render(" (empty)"))
		return
	}
	block := NewCodeBlock("", content)
	block.Plain = v.plain
	block.SetMaxWidth(v.innerWidth())
	b.WriteString("\n")
	b.WriteString(block.Render())
}

// preview returns a single-line summary of the result, or the arguments
// while the call is still running.
func (v *ToolCallView) preview() string {
	text := v.call.Args
	if v.call.HasResult {
		text = v.call.Result
	}
	text = strings.Join(strings.Fields(text), " ")
	return util.TruncateRunes(text, v.maxCollapsed)
}

func (v *ToolCallView) innerWidth() int {
	w := v.width - v.theme.ToolBox.GetHorizontalFrameSize()
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// TOOL CALL LIST
// =============================================================================

// ToolCallList keeps one view per tool call ID across snapshots so that
// expanded state survives updates.
type ToolCallList struct {
	views []*ToolCallView
	byID  map[string]*ToolCallView
	theme *styles.Theme
	width int
	plain bool
}

// NewToolCallList creates an empty list.
func NewToolCallList(theme *styles.Theme) *ToolCallList {
	return &ToolCallList{
		byID:  make(map[string]*ToolCallView),
		theme: theme,
		width: 80,
	}
}

// Sync updates the list from the tool calls of a snapshot. Calls missing
// from calls are dropped, as after a conversation reset.
func (l *ToolCallList) Sync(calls []run.ToolCall) {
	views := make([]*ToolCallView, 0, len(calls))
	byID := make(map[string]*ToolCallView, len(calls))
	for _, call := range calls {
		v, ok := l.byID[call.ID]
		if !ok {
			v = NewToolCallView(l.theme, call)
			v.SetWidth(l.width)
			v.SetPlain(l.plain)
		}
		v.SetCall(call)
		views = append(views, v)
		byID[call.ID] = v
	}
	l.views = views
	l.byID = byID
}

// SetWidth sets the display width of every view.
func (l *ToolCallList) SetWidth(width int) {
	l.width = width
	for _, v := range l.views {
		v.SetWidth(width)
	}
}

// SetPlain disables syntax highlighting for every view.
func (l *ToolCallList) SetPlain(plain bool) {
	l.plain = plain
	for _, v := range l.views {
		v.SetPlain(plain)
	}
}

// Count returns the number of tool calls.
func (l *ToolCallList) Count() int {
	return len(l.views)
}

// ToggleAll expands every view if any is collapsed, otherwise collapses all.
func (l *ToolCallList) ToggleAll() {
	expand := false
	for _, v := range l.views {
		if !v.IsExpanded() {
			expand = true
			break
		}
	}
	for _, v := range l.views {
		v.SetExpanded(expand)
	}
}

// ToggleAt toggles the view at index.
func (l *ToolCallList) ToggleAt(index int) {
	if index >= 0 && index < len(l.views) {
		l.views[index].Toggle()
	}
}

// View renders all tool calls.
func (l *ToolCallList) View() string {
	if len(l.views) == 0 {
		return ""
	}
	parts := make([]string, 0, len(l.views))
	for _, v := range l.views {
		parts = append(parts, v.View())
	}
	return strings.Join(parts, "\n")
}
