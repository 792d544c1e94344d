// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// replay.go - Reducing a captured event stream.
//
// Command: replay FILE [--prompt TEXT]
//
// The file holds a raw stream as sent by an agent ("data: {...}" lines).
// It is run through the same reader and reducer as a live request, so the
// printed transcript is what the chat view would have shown.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/session"
	"github.com/jeranaias/agchat/internal/transport"
)

// HandleReplayCommand handles "agchat replay".
func HandleReplayCommand(args Args, w io.Writer) error {
	if args.File == "" {
		return ErrMissingArgument("file", "agchat replay capture.log")
	}
	if _, err := os.Stat(args.File); err != nil {
		return NewCommandError("replay", "open", "cannot read capture file", err)
	}

	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	logger, closeLog, err := OpenLogger(cfg, !args.JSON)
	if err != nil {
		return err
	}
	defer closeLog()

	snap := replayFile(SessionConfig(cfg, logger), args.File, args.Query)

	if args.JSON {
		data := TranscriptData{
			File:        args.File,
			Phase:       snap.State.Phase.String(),
			Reason:      snap.State.Reason,
			Messages:    snap.Messages,
			ToolCalls:   snap.ToolCalls,
			Diagnostics: snap.Diagnostics,
		}
		return NewJSONResponse("replay", data).Print(w)
	}

	var md *glamour.TermRenderer
	if cfg.UI.Markdown && IsStdoutTTY() && w == os.Stdout {
		md = newMarkdownRenderer(GetTerminalWidth() - 4)
	}
	renderTranscript(w, snap, md)

	if !args.Quiet {
		fmt.Fprintln(w)
		fmt.Fprintln(w, RenderSeparator())
		renderStatus(w, snap.State)
		if len(snap.ToolCalls) > 0 {
			fmt.Fprintln(w)
			renderToolCalls(w, snap.ToolCalls)
		}
		if len(snap.Diagnostics) > 0 {
			fmt.Fprintln(w)
			renderDiagnostics(w, snap.Diagnostics)
		}
	}
	return nil
}

// replayFile reduces the capture at path and returns the final state.
func replayFile(cfg session.Config, path, prompt string) run.Snapshot {
	cfg.Placeholder = false
	sess := session.New(cfg, transport.FileSource{Path: path}, nil)
	defer sess.Close()
	sess.Submit(prompt)
	sess.Wait()
	return sess.Snapshot()
}
