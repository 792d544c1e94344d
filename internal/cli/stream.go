// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stream.go - Printing a run as it streams.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/agchat/internal/model"
	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/session"
)

// =============================================================================
// REPLY PRINTER
// =============================================================================

// replyPrinter writes assistant text incrementally from successive
// snapshots. Each message's printed text is remembered so only the new
// suffix is written. Placeholder text is never printed, and a message whose
// content was replaced is printed again in full on a new line.
type replyPrinter struct {
	out    io.Writer
	status io.Writer // tool call notes, nil to skip

	lastSeq  uint64
	printed  map[string]string
	tools    map[string]run.ToolStatus
	current  string
	anything bool
}

func newReplyPrinter(out, status io.Writer) *replyPrinter {
	return &replyPrinter{
		out:     out,
		status:  status,
		printed: make(map[string]string),
		tools:   make(map[string]run.ToolStatus),
	}
}

// Update prints whatever snap adds. Snapshots older than one already seen
// are ignored.
func (p *replyPrinter) Update(snap run.Snapshot) {
	if snap.Seq != 0 && snap.Seq <= p.lastSeq {
		return
	}
	p.lastSeq = snap.Seq

	for _, tc := range snap.ToolCalls {
		p.noteTool(tc)
	}

	for _, msg := range snap.Messages {
		if msg.Role != model.RoleAssistant || msg.Placeholder || msg.Content == "" {
			continue
		}
		p.printMessage(msg)
	}
}

func (p *replyPrinter) printMessage(msg model.Message) {
	prev, seen := p.printed[msg.ID]
	if seen && prev == msg.Content {
		return
	}

	if msg.ID != p.current {
		if p.anything {
			fmt.Fprint(p.out, "\n\n")
		}
		p.current = msg.ID
	}

	switch {
	case strings.HasPrefix(msg.Content, prev):
		fmt.Fprint(p.out, msg.Content[len(prev):])
	default:
		fmt.Fprint(p.out, "\n"+msg.Content)
	}
	p.printed[msg.ID] = msg.Content
	p.anything = true
}

func (p *replyPrinter) noteTool(tc run.ToolCall) {
	if p.status == nil {
		return
	}
	prev, seen := p.tools[tc.ID]
	if seen && prev == tc.Status {
		return
	}
	p.tools[tc.ID] = tc.Status

	switch tc.Status {
	case run.ToolCalling:
		fmt.Fprintln(p.status, DimStyle.Render(fmt.Sprintf("[tool] %s ...", tc.Name)))
	case run.ToolCompleted:
		fmt.Fprintln(p.status, DimStyle.Render(fmt.Sprintf("[tool] %s done", tc.Name)))
	}
}

// Finish ends the current line if anything was printed.
func (p *replyPrinter) Finish() {
	if p.anything {
		fmt.Fprintln(p.out)
	}
	p.current = ""
	p.anything = false
}

// =============================================================================
// WAITING FOR A RUN
// =============================================================================

// waitRun feeds snapshots to onSnap until every run goroutine of sess has
// exited, then delivers the final state once more and returns it.
func waitRun(sess *session.Session, pub *session.ChannelPublisher, onSnap func(run.Snapshot)) run.Snapshot {
	done := make(chan struct{})
	go func() {
		sess.Wait()
		close(done)
	}()

	for {
		select {
		case snap := <-pub.C():
			onSnap(snap)
		case <-done:
			select {
			case <-pub.C():
			default:
			}
			final := sess.Snapshot()
			onSnap(final)
			return final
		}
	}
}

// runError converts an errored run into an error.
func runError(snap run.Snapshot) error {
	if snap.State.Phase != run.PhaseErrored {
		return nil
	}
	return &RunError{Reason: snap.State.Reason}
}
