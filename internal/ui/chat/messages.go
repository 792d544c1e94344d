// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agchat/internal/run"
)

// SnapshotMsg delivers a new view of the conversation.
type SnapshotMsg struct {
	Snapshot run.Snapshot
}

// EndpointChangedMsg reports that the session now streams from Endpoint.
type EndpointChangedMsg struct {
	Endpoint string
}

// submitMsg submits a prompt outside of the input line, such as the
// query given on the command line.
type submitMsg struct {
	Prompt string
}

// listen waits for the next snapshot on ch.
func listen(ch <-chan run.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}
