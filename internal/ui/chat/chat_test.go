// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agchat/internal/model"
	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/ui/styles"
)

// fakeSession records calls made by the model.
type fakeSession struct {
	prompts []string
	resets  int
	gen     uint64
	closed  bool
}

func (f *fakeSession) Submit(prompt string) uint64 {
	if f.closed {
		return 0
	}
	f.prompts = append(f.prompts, prompt)
	f.gen++
	return f.gen
}

func (f *fakeSession) Reset() { f.resets++ }

func (f *fakeSession) Snapshot() run.Snapshot { return run.Snapshot{} }

func newTestModel(t *testing.T, opts Options) (Model, *fakeSession) {
	t.Helper()
	sess := &fakeSession{}
	m := New(styles.NewTheme(styles.ModeDark), sess, nil, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), sess
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: k})
	return updated.(Model)
}

func snapshotWith(seq uint64, state run.State, msgs ...model.Message) SnapshotMsg {
	return SnapshotMsg{Snapshot: run.Snapshot{Seq: seq, State: state, Messages: msgs}}
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmitSendsTrimmedPrompt(t *testing.T) {
	m, sess := newTestModel(t, Options{})

	m = typeText(t, m, "  hello agent  ")
	m = press(t, m, tea.KeyEnter)

	require.Len(t, sess.prompts, 1)
	assert.Equal(t, "hello agent", sess.prompts[0])
	assert.Empty(t, m.input.Value(), "input should clear after a submit")
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	m, sess := newTestModel(t, Options{})

	m = typeText(t, m, "   ")
	press(t, m, tea.KeyEnter)

	assert.Empty(t, sess.prompts)
}

func TestSubmitThrottle(t *testing.T) {
	m, sess := newTestModel(t, Options{SubmitInterval: time.Hour})

	m = typeText(t, m, "first")
	m = press(t, m, tea.KeyEnter)
	m = typeText(t, m, "second")
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, []string{"first"}, sess.prompts)
	assert.Contains(t, m.Notice(), "slow down")
	assert.Equal(t, "second", m.input.Value(), "throttled prompt should stay in the input")
}

func TestSubmitAfterClose(t *testing.T) {
	m, sess := newTestModel(t, Options{})
	sess.closed = true

	m = typeText(t, m, "hello")
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, "session closed", m.Notice())
	assert.Equal(t, "hello", m.input.Value())
}

func TestInitialQuerySubmits(t *testing.T) {
	m, sess := newTestModel(t, Options{InitialQuery: "from the command line"})

	assert.NotNil(t, m.Init())

	updated, _ := m.Update(submitMsg{Prompt: "from the command line"})
	_ = updated.(Model)
	assert.Equal(t, []string{"from the command line"}, sess.prompts)
}

func TestNewConversationResetsSession(t *testing.T) {
	m, sess := newTestModel(t, Options{})

	press(t, m, tea.KeyCtrlN)

	assert.Equal(t, 1, sess.resets)
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestSnapshotRendersTranscript(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	updated, cmd := m.Update(snapshotWith(3,
		run.State{Phase: run.PhaseTyping, Generation: 1, Running: true},
		model.Message{ID: "u1", Role: model.RoleUser, Content: "What's the weather?"},
		model.Message{ID: "a1", Role: model.RoleAssistant, Content: "Checking now", Open: true},
	))
	m = updated.(Model)

	assert.Nil(t, cmd, "no listener without a snapshot channel")
	view := m.View()
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "What's the weather?")
	assert.Contains(t, view, "Assistant")
	assert.Contains(t, view, "Checking now")
	assert.Contains(t, view, "typing...")
}

func TestStaleSnapshotIgnored(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	updated, _ := m.Update(snapshotWith(5, run.State{Phase: run.PhaseFinished},
		model.Message{ID: "a1", Role: model.RoleAssistant, Content: "newer"}))
	m = updated.(Model)
	updated, _ = m.Update(snapshotWith(4, run.State{Phase: run.PhaseTyping, Running: true},
		model.Message{ID: "a1", Role: model.RoleAssistant, Content: "older"}))
	m = updated.(Model)

	assert.Equal(t, uint64(5), m.Snapshot().Seq)
	assert.Contains(t, m.View(), "newer")
}

func TestToolCallsShownAfterUserMessage(t *testing.T) {
	m, _ := newTestModel(t, Options{Plain: true})

	snap := snapshotWith(2,
		run.State{Phase: run.PhaseCallingTool, Tool: "search", Running: true},
		model.Message{ID: "u1", Role: model.RoleUser, Content: "find it"},
	)
	snap.Snapshot.ToolCalls = []run.ToolCall{{ID: "t1", Name: "search", Args: `{"q":"x"}`}}
	updated, _ := m.Update(snap)
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "search")
	assert.Contains(t, view, "calling search...")
	assert.Less(t, strings.Index(view, "find it"), strings.LastIndex(view, "search"))
}

func TestErroredStatusShowsReason(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	updated, _ := m.Update(snapshotWith(1,
		run.State{Phase: run.PhaseErrored, Reason: "model overloaded"}))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "error: model overloaded")
	assert.Contains(t, view, styles.StatusIndicators.Error)
}

func TestDiagnosticsToggle(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	snap := snapshotWith(1, run.State{Phase: run.PhaseFinished},
		model.Message{ID: "a1", Role: model.RoleAssistant, Content: "done"})
	snap.Snapshot.Diagnostics = []run.Diagnostic{{Generation: 1, Kind: run.DiagUnknownEvent, Detail: "CUSTOM"}}
	updated, _ := m.Update(snap)
	m = updated.(Model)
	assert.NotContains(t, m.View(), "CUSTOM")

	m = press(t, m, tea.KeyCtrlG)
	assert.Contains(t, m.View(), "CUSTOM")
}

func TestPlaceholderRendered(t *testing.T) {
	m, _ := newTestModel(t, Options{Markdown: true})

	updated, _ := m.Update(snapshotWith(1,
		run.State{Phase: run.PhaseSubmitted, Running: true},
		model.Message{ID: "u1", Role: model.RoleUser, Content: "hi"},
		model.Message{ID: "a1", Role: model.RoleAssistant, Content: "..", Open: true, Placeholder: true},
	))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "..")
	assert.Contains(t, view, "thinking...")
}

// =============================================================================
// VIEW TESTS
// =============================================================================

func TestViewBeforeResize(t *testing.T) {
	m := New(styles.NewTheme(styles.ModeDark), &fakeSession{}, nil, Options{})
	assert.Equal(t, "Loading...", m.View())
}

func TestEndpointChanged(t *testing.T) {
	m, _ := newTestModel(t, Options{Endpoint: "http://old"})

	updated, _ := m.Update(EndpointChangedMsg{Endpoint: "http://new"})
	m = updated.(Model)

	assert.Equal(t, "http://new", m.Endpoint())
	assert.Contains(t, m.View(), "http://new")
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m = press(t, m, tea.KeyF1)
	assert.Contains(t, m.View(), "new chat")

	m = press(t, m, tea.KeyF1)
	assert.NotContains(t, m.View(), "scroll up")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
