// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat screen.
//
// The model holds no conversation state of its own. Prompts go to a
// Session, and every change comes back as a run.Snapshot read from the
// session's publisher channel:
//
//	pub := session.NewChannelPublisher()
//	sess := session.New(cfg, src, pub)
//	m := chat.New(theme, sess, pub.C(), chat.Options{Endpoint: url})
//	tea.NewProgram(m, tea.WithAltScreen()).Run()
//
// Snapshots older than the one on screen are dropped, so a late delivery
// never rolls the transcript back.
package chat
