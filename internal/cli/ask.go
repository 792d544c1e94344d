// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler.
//
// Sends one prompt to the agent endpoint and prints the streamed reply.
//
// Command: ask [question]
//
// Examples:
//   agchat ask "What is the capital of France?"
//   agchat --json ask "List the open tickets"
//   echo "Summarize this" | agchat ask
//
// With a terminal on stdout and ui.markdown enabled, the reply is rendered
// as markdown once the run ends; otherwise text is printed as it streams.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/agchat/internal/config"
	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/session"
)

// maxStdinPrompt caps a prompt read from a pipe (1MB).
const maxStdinPrompt = 1 << 20

// HandleAskCommand handles "agchat ask".
func HandleAskCommand(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinPrompt))
		if err != nil {
			return NewCommandError("ask", "read", "could not read prompt from stdin", err)
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" {
		return ErrMissingArgument("question", `agchat ask "What is AG-UI?"`)
	}

	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if err := RequireEndpoint(cfg); err != nil {
		return err
	}

	logger, closeLog, err := OpenLogger(cfg, !args.JSON)
	if err != nil {
		return err
	}
	defer closeLog()

	pub := session.NewChannelPublisher()
	sess := session.New(SessionConfig(cfg, logger), NewSource(cfg, logger), pub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sess.Close()
	}()

	markdown := !args.JSON && cfg.UI.Markdown && IsStdoutTTY()
	var onSnap func(run.Snapshot)
	var printer *replyPrinter
	if !args.JSON && !markdown {
		var status io.Writer = os.Stderr
		if args.Quiet {
			status = nil
		}
		printer = newReplyPrinter(os.Stdout, status)
		onSnap = printer.Update
	} else {
		onSnap = func(run.Snapshot) {}
	}

	start := time.Now()
	sess.Submit(query)
	final := waitRun(sess, pub, onSnap)
	duration := time.Since(start)

	reply, _ := final.LastAssistant()
	runErr := runError(final)
	if ctx.Err() != nil && runErr == nil && final.State.Running {
		runErr = NewCommandError("ask", "stream", "interrupted", ctx.Err())
	}

	if args.JSON {
		data := AskData{
			Prompt:      query,
			Response:    reply.Content,
			Phase:       final.State.Phase.String(),
			Reason:      final.State.Reason,
			ToolCalls:   final.ToolCalls,
			Diagnostics: final.Diagnostics,
			DurationMs:  duration.Milliseconds(),
		}
		if runErr != nil {
			NewJSONErrorResponse("ask", data, runErr).Print(os.Stdout)
			return &reportedError{runErr}
		}
		return NewJSONResponse("ask", data).Print(os.Stdout)
	}

	if printer != nil {
		printer.Finish()
	} else if reply.Content != "" && !reply.Placeholder {
		md := newMarkdownRenderer(GetTerminalWidth() - 4)
		fmt.Print(renderMarkdown(md, reply.Content))
	}

	if !args.Quiet && runErr == nil {
		fmt.Fprintln(os.Stderr, DimStyle.Render(fmt.Sprintf("[%s in %s]",
			final.State.Phase, duration.Round(time.Millisecond))))
	}
	return runErr
}

// RequireEndpoint reports a usage error when no endpoint is configured.
func RequireEndpoint(cfg *config.Config) error {
	if cfg.Backend.Endpoint != "" {
		return nil
	}
	return &ValidationError{
		Field:   "endpoint",
		Reason:  "no agent endpoint configured",
		Example: "agchat --endpoint http://localhost:8000/agent ask hello",
	}
}

// reportedError wraps an error whose details were already written.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
