// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/agchat/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content string `json:"content"`

	// Open is true while the message still accepts appends.
	Open bool `json:"open,omitempty"`

	// Placeholder is true while the content is the provisional
	// thinking indicator rather than streamed text.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Append adds a delta to an open message.
// Returns false if the message is closed.
func (m *Message) Append(delta string) bool {
	if !m.Open {
		return false
	}
	m.Content += delta
	return true
}

// Replace overwrites the content of an open message.
// Returns false if the message is closed.
func (m *Message) Replace(content string) bool {
	if !m.Open {
		return false
	}
	m.Content = content
	return true
}

// Close stops the message from accepting further content.
func (m *Message) Close() {
	m.Open = false
	m.Placeholder = false
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a truncated preview of the message content.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Content, maxLen)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// IDFunc generates message identifiers.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// SequentialIDs returns an IDFunc yielding prefix-1, prefix-2, ...
// Useful when deterministic transcripts are needed.
func SequentialIDs(prefix string) IDFunc {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
