// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the transcript types the run state machine folds
// streamed events into and the presentation layer reads back out of
// published snapshots.
//
// # Key Types
//
//   - Conversation: Append-only, ordered list of messages
//   - Message: Single message with role, content, creation time and open state
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
// Create a conversation and stream into an assistant message:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("What's the weather?")
//	msg := conv.AddAssistantMessage("")
//	msg.Append("Sunny")
//	msg.Close()
//
// Messages are closed exactly once; a closed message rejects further appends.
package model
