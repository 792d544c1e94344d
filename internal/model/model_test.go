// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_AppendOnlyWhileOpen(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddAssistantMessage("")

	if !msg.Append("Hi") {
		t.Fatal("Append on open message should succeed")
	}
	msg.Close()
	if msg.Append(" there") {
		t.Error("Append on closed message should fail")
	}
	if msg.Replace("x") {
		t.Error("Replace on closed message should fail")
	}
	if msg.Content != "Hi" {
		t.Errorf("Content = %q, want 'Hi'", msg.Content)
	}
}

func TestMessage_CloseClearsPlaceholder(t *testing.T) {
	msg := &Message{Open: true, Placeholder: true}
	msg.Close()
	if msg.Placeholder {
		t.Error("Close should clear Placeholder")
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hello", 10, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "日本語のテキスト", 5, "日本..."},
		{"tiny", "hello", 2, "he"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := &Message{Content: tc.content}
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q", RoleAssistant.DisplayName())
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_IDsAreUnique(t *testing.T) {
	conv := NewConversation()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := conv.AddUserMessage("x")
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestConversation_ResetKeepsGenerator(t *testing.T) {
	conv := NewConversation(WithIDFunc(SequentialIDs("m")))
	first := conv.AddUserMessage("a")
	conv.Reset()
	second := conv.AddUserMessage("b")

	if first.ID == second.ID {
		t.Errorf("IDs reused across Reset: %q", first.ID)
	}
	if conv.Len() != 1 {
		t.Errorf("Len() = %d, want 1", conv.Len())
	}
	if conv.Get(first.ID) != nil {
		t.Error("Get should not find messages removed by Reset")
	}
}

func TestConversation_GetAndLast(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	conv := NewConversation(WithIDFunc(SequentialIDs("m")), WithClock(func() time.Time { return fixed }))

	if conv.Last() != nil {
		t.Error("Last() on empty conversation should be nil")
	}

	user := conv.AddUserMessage("hello")
	asst := conv.AddAssistantMessage("")

	if got := conv.Get(user.ID); got != user {
		t.Error("Get(user.ID) returned wrong message")
	}
	if conv.Last() != asst {
		t.Error("Last() should be the assistant message")
	}
	if !asst.Open || user.Open {
		t.Error("assistant messages open, user messages closed")
	}
	if !asst.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", asst.CreatedAt, fixed)
	}
	if user.ID != "m-1" || asst.ID != "m-2" {
		t.Errorf("IDs = %q, %q; want m-1, m-2", user.ID, asst.ID)
	}
}

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddAssistantMessage("a")

	clone := conv.Clone()
	msg.Append("b")

	if clone[0].Content != "a" {
		t.Errorf("clone mutated: %q", clone[0].Content)
	}
}
