// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives runs from a stream source and publishes snapshots.
//
// A Session owns one run.Machine. Submit starts a generation, opens the
// source, and spawns a goroutine that reads, parses and applies one payload
// at a time under the session lock. Every applied step, including no-op
// events and parse diagnostics, is followed by a Publish; steps rejected as
// stale are not.
//
// # Key Types
//
//   - Session: Submit / Reset / Snapshot / Wait / Close
//   - Publisher: Receives snapshots; must not block
//   - ChannelPublisher: Latest-wins channel for a UI loop
//   - Config: Args mode, placeholder and indicator settings
//
// # Usage
//
//	pub := session.NewChannelPublisher()
//	s := session.New(session.DefaultConfig(), transport.NewClient(url), pub)
//	defer s.Close()
//
//	s.Submit("What's the weather?")
//	for snap := range pub.C() {
//	    render(snap)
//	}
//
// # Cancellation
//
// Submitting while a run is in flight cancels the old request's context,
// which closes an HTTP body and releases its reader. Whatever the old
// goroutine still reads is compared against the current generation and
// dropped. The thinking indicator of each run is stopped exactly once, on
// first content or on whichever exit path comes first.
package session
