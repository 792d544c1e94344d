// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"golang.org/x/time/rate"

	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/ui/components"
	"github.com/jeranaias/agchat/internal/ui/styles"
)

// Session is the part of session.Session the chat view drives.
type Session interface {
	Submit(prompt string) uint64
	Reset()
	Snapshot() run.Snapshot
}

// Options configures a Model.
type Options struct {
	// Endpoint is shown in the header.
	Endpoint string

	// InitialQuery is submitted when the program starts.
	InitialQuery string

	// Markdown renders finished assistant replies with glamour.
	Markdown bool

	// SubmitInterval is the minimum gap between two submits.
	SubmitInterval time.Duration

	// Plain disables syntax highlighting of tool calls.
	Plain bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen. All conversation state
// lives in the session; the model only renders the latest snapshot.
type Model struct {
	sess      Session
	snapshots <-chan run.Snapshot
	opts      Options

	theme    *styles.Theme
	keyMap   KeyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	tools    *components.ToolCallList
	limiter  *rate.Limiter

	snap     run.Snapshot
	notice   string
	showHelp bool
	showDiag bool

	md      *glamour.TermRenderer
	mdWidth int
	mdCache map[string]renderedMessage

	width  int
	height int
}

// renderedMessage caches the markdown rendering of a closed message.
type renderedMessage struct {
	content string
	width   int
	out     string
}

// New creates a chat model that drives sess and renders the snapshots
// received on snapshots.
func New(theme *styles.Theme, sess Session, snapshots <-chan run.Snapshot, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the agent..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	limit := rate.Inf
	if opts.SubmitInterval > 0 {
		limit = rate.Every(opts.SubmitInterval)
	}

	tools := components.NewToolCallList(theme)
	tools.SetPlain(opts.Plain)

	m := Model{
		sess:      sess,
		snapshots: snapshots,
		opts:      opts,
		theme:     theme,
		keyMap:    DefaultKeyMap(),
		help:      help.New(),
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		tools:     tools,
		limiter:   rate.NewLimiter(limit, 1),
		mdCache:   make(map[string]renderedMessage),
	}
	if sess != nil {
		m.snap = sess.Snapshot()
	}
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink, the spinner and the snapshot listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, listen(m.snapshots)}
	if q := strings.TrimSpace(m.opts.InitialQuery); q != "" {
		cmds = append(cmds, func() tea.Msg { return submitMsg{Prompt: q} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, listen(m.snapshots)

	case EndpointChangedMsg:
		m.opts.Endpoint = msg.Endpoint
		m.notice = "endpoint changed"
		return m, nil

	case submitMsg:
		m.submit(msg.Prompt)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	const (
		headerHeight    = 1
		inputAreaHeight = 2 // border + input line
		statusBarHeight = 1
	)
	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := m.width
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight

	const promptLen = 2 // "> "
	inputWidth := m.width - 2 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
	m.help.Width = m.width

	m.tools.SetWidth(m.contentWidth())
	m.refreshViewport(true)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" {
			return m, nil
		}
		if m.submit(prompt) {
			m.input.Reset()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NewConversation):
		m.notice = ""
		m.mdCache = make(map[string]renderedMessage)
		if m.sess != nil {
			m.sess.Reset()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleTools):
		m.tools.ToggleAll()
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keyMap.Diagnostics):
		m.showDiag = !m.showDiag
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends prompt to the session unless submits are arriving faster
// than the configured interval. It reports whether the prompt was sent.
func (m *Model) submit(prompt string) bool {
	if m.sess == nil {
		return false
	}
	if !m.limiter.Allow() {
		m.notice = "slow down: wait before sending again"
		return false
	}
	m.notice = ""
	if gen := m.sess.Submit(prompt); gen == 0 {
		m.notice = "session closed"
		return false
	}
	return true
}

// applySnapshot stores snap unless it is older than the one shown.
func (m *Model) applySnapshot(snap run.Snapshot) {
	if snap.Seq < m.snap.Seq {
		return
	}
	m.snap = snap
	m.tools.Sync(snap.ToolCalls)
	m.refreshViewport(false)
}

// refreshViewport re-renders the transcript. The view follows new content
// when it was already scrolled to the bottom.
func (m *Model) refreshViewport(force bool) {
	follow := force || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow {
		m.viewport.GotoBottom()
	}
}

// contentWidth is the width available to message bodies.
func (m *Model) contentWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Snapshot returns the snapshot being displayed.
func (m Model) Snapshot() run.Snapshot {
	return m.snap
}

// Notice returns the transient notice shown in the status bar.
func (m Model) Notice() string {
	return m.notice
}

// Endpoint returns the endpoint shown in the header.
func (m Model) Endpoint() string {
	return m.opts.Endpoint
}
