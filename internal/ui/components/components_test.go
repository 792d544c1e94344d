// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestNewCodeBlockPrettyPrintsJSON(t *testing.T) {
	block := NewCodeBlock("", `{"city":"Paris","days":3}`)

	if block.Language != "json" {
		t.Errorf("Language = %q, want json", block.Language)
	}
	if !strings.Contains(block.Code, "\n") {
		t.Errorf("JSON should be pretty-printed, got %q", block.Code)
	}
	if !strings.Contains(block.Code, `"city": "Paris"`) {
		t.Errorf("pretty output missing field: %q", block.Code)
	}
}

func TestNewCodeBlockKeepsText(t *testing.T) {
	block := NewCodeBlock("", "  sunny, 21C  ")

	if block.Language != "" {
		t.Errorf("Language = %q, want empty", block.Language)
	}
	if block.Code != "sunny, 21C" {
		t.Errorf("Code = %q", block.Code)
	}
}

func TestCodeBlockRenderLineNumbers(t *testing.T) {
	block := NewCodeBlock("", "first\nsecond")
	block.Plain = true

	out := block.Render()
	for _, want := range []string{"1", "2", "first", "second"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}

func TestCodeBlockRenderEmpty(t *testing.T) {
	if out := NewCodeBlock("", "   ").Render(); out != "" {
		t.Errorf("empty block should render nothing, got %q", out)
	}
}

func TestHighlightCodeKeepsContent(t *testing.T) {
	out := highlightCode(`{"a": 1}`, "json")
	if !strings.Contains(out, "a") || !strings.Contains(out, "1") {
		t.Errorf("highlighted output lost content: %q", out)
	}
}

// =============================================================================
// TOOL CALL VIEW TESTS
// =============================================================================

func TestToolCallViewCollapsed(t *testing.T) {
	v := NewToolCallView(testTheme(), run.ToolCall{
		ID:     "t1",
		Name:   "search",
		Args:   `{"q":"weather"}`,
		Status: run.ToolCalling,
	})
	v.SetPlain(true)

	out := v.View()
	for _, want := range []string{"search", "calling", "[+]", styles.StatusIndicators.Active, "weather"} {
		if !strings.Contains(out, want) {
			t.Errorf("collapsed view missing %q:\n%s", want, out)
		}
	}
}

func TestToolCallViewExpanded(t *testing.T) {
	v := NewToolCallView(testTheme(), run.ToolCall{
		ID:        "t1",
		Name:      "search",
		Args:      `{"q":"weather"}`,
		Result:    "sunny",
		HasResult: true,
		Status:    run.ToolCompleted,
	})
	v.SetPlain(true)
	v.Toggle()

	if !v.IsExpanded() {
		t.Fatal("Toggle should expand the view")
	}
	out := v.View()
	for _, want := range []string{"args:", "result:", "sunny", `"q": "weather"`, "[-]", styles.StatusIndicators.Success} {
		if !strings.Contains(out, want) {
			t.Errorf("expanded view missing %q:\n%s", want, out)
		}
	}
}

func TestToolCallViewEmptyArgs(t *testing.T) {
	v := NewToolCallView(testTheme(), run.ToolCall{ID: "t1", Name: "noop"})
	v.SetExpanded(true)

	if out := v.View(); !strings.Contains(out, "(empty)") {
		t.Errorf("empty args should be marked:\n%s", out)
	}
}

func TestToolCallViewZeroValue(t *testing.T) {
	v := NewToolCallView(testTheme(), run.ToolCall{})
	if out := v.View(); out != "" {
		t.Errorf("view without an ID should render nothing, got %q", out)
	}
}

// =============================================================================
// TOOL CALL LIST TESTS
// =============================================================================

func TestToolCallListSyncKeepsExpandedState(t *testing.T) {
	l := NewToolCallList(testTheme())
	l.SetPlain(true)

	l.Sync([]run.ToolCall{{ID: "a", Name: "one"}, {ID: "b", Name: "two"}})
	l.ToggleAt(1)

	l.Sync([]run.ToolCall{
		{ID: "a", Name: "one"},
		{ID: "b", Name: "two", Result: "done", HasResult: true, Status: run.ToolCompleted},
	})

	if l.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", l.Count())
	}
	if l.byID["a"].IsExpanded() {
		t.Error("a should stay collapsed")
	}
	if !l.byID["b"].IsExpanded() {
		t.Error("b should stay expanded after Sync")
	}
	if !strings.Contains(l.View(), "done") {
		t.Error("View should show the updated result")
	}
}

func TestToolCallListSyncDropsMissing(t *testing.T) {
	l := NewToolCallList(testTheme())
	l.Sync([]run.ToolCall{{ID: "a", Name: "one"}})
	l.Sync(nil)

	if l.Count() != 0 {
		t.Errorf("Count() = %d after reset, want 0", l.Count())
	}
	if l.View() != "" {
		t.Error("empty list should render nothing")
	}
}

func TestToolCallListToggleAll(t *testing.T) {
	l := NewToolCallList(testTheme())
	l.Sync([]run.ToolCall{{ID: "a"}, {ID: "b"}})

	l.ToggleAt(0)
	l.ToggleAll()
	for id, v := range l.byID {
		if !v.IsExpanded() {
			t.Errorf("%s should be expanded when any view was collapsed", id)
		}
	}

	l.ToggleAll()
	for id, v := range l.byID {
		if v.IsExpanded() {
			t.Errorf("%s should collapse when all were expanded", id)
		}
	}

	l.ToggleAt(5)
}
