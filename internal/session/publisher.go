// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/agchat/internal/run"

// =============================================================================
// PUBLISHER
// =============================================================================

// Publisher receives a snapshot after every processed step.
//
// Publish is called with the session lock held, in step order. It must not
// block and must not call back into the Session.
type Publisher interface {
	Publish(snap run.Snapshot)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(snap run.Snapshot)

// Publish calls f(snap).
func (f PublisherFunc) Publish(snap run.Snapshot) {
	f(snap)
}

// discardPublisher drops every snapshot.
type discardPublisher struct{}

func (discardPublisher) Publish(run.Snapshot) {}

// =============================================================================
// CHANNEL PUBLISHER
// =============================================================================

// ChannelPublisher delivers snapshots over a one-slot channel.
// A slow reader only ever sees the latest snapshot; older pending ones are
// replaced. It is meant for a single consumer such as a UI loop.
type ChannelPublisher struct {
	ch chan run.Snapshot
}

// NewChannelPublisher creates a ChannelPublisher.
func NewChannelPublisher() *ChannelPublisher {
	return &ChannelPublisher{ch: make(chan run.Snapshot, 1)}
}

// Publish stores snap, replacing any snapshot not yet received.
func (p *ChannelPublisher) Publish(snap run.Snapshot) {
	for {
		select {
		case p.ch <- snap:
			return
		default:
		}
		select {
		case <-p.ch:
		default:
		}
	}
}

// C returns the channel snapshots are delivered on.
func (p *ChannelPublisher) C() <-chan run.Snapshot {
	return p.ch
}
