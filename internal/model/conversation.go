// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message history of a chat.
// Messages are only ever appended; they are never reordered or removed
// except by Reset, which starts a fresh conversation.
type Conversation struct {
	Messages []*Message `json:"messages"`

	newID IDFunc
	now   func() time.Time
	index map[string]int
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithIDFunc sets the message ID generator.
func WithIDFunc(fn IDFunc) Option {
	return func(c *Conversation) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock sets the clock used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConversation creates an empty conversation.
func NewConversation(opts ...Option) *Conversation {
	c := &Conversation{
		Messages: make([]*Message, 0),
		newID:    NewID,
		now:      time.Now,
		index:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// add appends a message, assigning its ID and timestamp.
func (c *Conversation) add(role Role, content string, open bool) *Message {
	msg := &Message{
		ID:        c.newID(),
		Role:      role,
		Content:   content,
		CreatedAt: c.now(),
		Open:      open,
	}
	c.index[msg.ID] = len(c.Messages)
	c.Messages = append(c.Messages, msg)
	return msg
}

// AddUserMessage creates and adds a closed user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	return c.add(RoleUser, content, false)
}

// AddAssistantMessage creates and adds an open assistant message.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	return c.add(RoleAssistant, content, true)
}

// AddClosedAssistantMessage creates and adds an assistant message that
// accepts no further content.
func (c *Conversation) AddClosedAssistantMessage(content string) *Message {
	return c.add(RoleAssistant, content, false)
}

// Get returns a message by ID, or nil if absent.
func (c *Conversation) Get(id string) *Message {
	if i, ok := c.index[id]; ok {
		return c.Messages[i]
	}
	return nil
}

// Last returns the most recent message, or nil if empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Reset removes all messages. IDs already issued are never reissued
// because the generator is kept.
func (c *Conversation) Reset() {
	c.Messages = make([]*Message, 0)
	c.index = make(map[string]int)
}

// Clone creates a deep copy of the conversation's messages.
func (c *Conversation) Clone() []Message {
	out := make([]Message, len(c.Messages))
	for i, msg := range c.Messages {
		out[i] = *msg
	}
	return out
}
