// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agchat/internal/model"
	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/ui/styles"
	"github.com/jeranaias/agchat/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

// renderChat stacks header, transcript, input and status bar.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	available := m.height - lipgloss.Height(header) - lipgloss.Height(input) - lipgloss.Height(status)
	if available < 1 {
		available = 1
	}

	messages := m.viewport.View()
	if lipgloss.Height(messages) != available {
		messages = lipgloss.NewStyle().
			Height(available).
			MaxHeight(available).
			Width(m.width).
			Render(messages)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, messages, input, status)
}

// renderHeader shows the title and the endpoint.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("agchat")
	endpoint := m.opts.Endpoint
	if endpoint == "" {
		endpoint = "no endpoint configured"
	}
	room := m.width - lipgloss.Width(title) - 4
	subtitle := m.theme.HeaderSubtitle.Render(util.TruncateWidth(endpoint, room))
	return m.theme.Header.Width(m.width).Render(title + "  " + subtitle)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderMessages renders the conversation. Tool calls of the current run
// follow the last user message.
func (m *Model) renderMessages() string {
	if len(m.snap.Messages) == 0 {
		return m.renderEmptyState()
	}

	lastUser := -1
	for i, msg := range m.snap.Messages {
		if msg.Role == model.RoleUser {
			lastUser = i
		}
	}

	var parts []string
	for i := range m.snap.Messages {
		msg := &m.snap.Messages[i]
		// A reply that closed without text, such as a tool-only run.
		if msg.Open || !msg.IsEmpty() {
			parts = append(parts, m.renderMessage(msg))
		}
		if i == lastUser && m.tools.Count() > 0 {
			parts = append(parts, m.tools.View())
		}
	}
	if m.showDiag {
		if diag := m.renderDiagnostics(); diag != "" {
			parts = append(parts, diag)
		}
	}
	return strings.Join(parts, "\n\n")
}

// renderMessage renders one message with its role label.
func (m *Model) renderMessage(msg *model.Message) string {
	width := m.contentWidth()
	label := m.theme.AssistantLabel
	bubble := m.theme.AssistantBubble
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel
		bubble = m.theme.UserBubble
	}

	head := label.Render(msg.Role.DisplayName()) + " " +
		m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))

	var body string
	switch {
	case msg.Placeholder:
		body = m.theme.Placeholder.Render(msg.Content)
	case msg.Role == model.RoleAssistant && !msg.Open && m.opts.Markdown:
		body = m.renderMarkdown(msg, width-bubble.GetHorizontalFrameSize())
	default:
		body = lipgloss.NewStyle().Width(width - bubble.GetHorizontalFrameSize()).Render(msg.Content)
	}
	return head + "\n" + bubble.Render(body)
}

// renderMarkdown renders a closed assistant message with glamour, caching
// by message ID. Open messages are still changing and are shown as text.
func (m *Model) renderMarkdown(msg *model.Message, width int) string {
	if cached, ok := m.mdCache[msg.ID]; ok && cached.content == msg.Content && cached.width == width {
		return cached.out
	}
	if m.md == nil || m.mdWidth != width {
		style := "dark"
		if !m.theme.IsDark {
			style = "light"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return msg.Content
		}
		m.md, m.mdWidth = r, width
	}
	out, err := m.md.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	out = strings.Trim(out, "\n")
	m.mdCache[msg.ID] = renderedMessage{content: msg.Content, width: width, out: out}
	return out
}

// renderDiagnostics lists recorded stream diagnostics.
func (m *Model) renderDiagnostics() string {
	if len(m.snap.Diagnostics) == 0 {
		return m.theme.Diagnostic.Render("no diagnostics")
	}
	lines := make([]string, 0, len(m.snap.Diagnostics)+1)
	lines = append(lines, m.theme.ToolLabel.Render("diagnostics:"))
	for _, d := range m.snap.Diagnostics {
		line := fmt.Sprintf("[%s] gen=%d %s", d.Kind, d.Generation, d.Detail)
		lines = append(lines, m.theme.Diagnostic.Render(util.TruncateWidth(line, m.contentWidth())))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderEmptyState() string {
	lines := []string{
		m.theme.HeaderTitle.Render("Start a conversation"),
		m.theme.ToolLabel.Render("Type a message and press Enter. F1 shows all keys."),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// renderStatusBar shows the run status, a transient notice and key hints.
func (m Model) renderStatusBar() string {
	left := m.renderRunStatus()
	if m.notice != "" {
		left += "  " + m.theme.StatusBusy.Render(m.notice)
	}

	var hints []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(hints, "  ")
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		right = ""
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		right = ""
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderRunStatus renders the phase-derived status text.
func (m Model) renderRunStatus() string {
	state := m.snap.State
	text := m.snap.Status()
	switch {
	case state.Phase == run.PhaseErrored:
		if state.Reason != "" {
			text += ": " + state.Reason
		}
		return m.theme.StatusError.Render(styles.StatusIndicators.Error + " " + util.TruncateWidth(text, m.width/2))
	case state.Running:
		return m.spinner.View() + " " + m.theme.StatusBusy.Render(text)
	default:
		return m.theme.StatusOnline.Render(styles.StatusIndicators.Active + " " + text)
	}
}

// renderHelpOverlay lists every key binding.
func (m Model) renderHelpOverlay() string {
	body := m.theme.HeaderTitle.Render("Keys") + "\n\n" + m.help.FullHelpView(m.keyMap.FullHelp())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.theme.ToolBox.Render(body))
}
