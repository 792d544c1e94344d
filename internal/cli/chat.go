// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-oriented interactive chat.
//
// Command: chat
//
// Each line is submitted as a prompt and the reply streams back in place.
// Slash commands inspect or reset the conversation. Ctrl+C while a reply
// is streaming abandons the run; at the prompt it exits.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/agchat/internal/config"
	"github.com/jeranaias/agchat/internal/session"
)

var promptStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("39")).
	Bold(true)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput provides line editing and persistent history.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	in := &chatInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// ReadInput reads one line. Non-empty lines are added to history.
func (c *chatInput) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (c *chatInput) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// chatState is what the slash commands act on.
type chatState struct {
	sess     *session.Session
	endpoint atomic.Value // string
	out      io.Writer
}

// HandleChatCommand handles "agchat chat".
func HandleChatCommand(args Args) error {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if err := RequireEndpoint(cfg); err != nil {
		return err
	}

	logger, closeLog, err := OpenLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	pub := session.NewChannelPublisher()
	sess := session.New(SessionConfig(cfg, logger), NewSource(cfg, logger), pub)
	defer sess.Close()

	state := &chatState{sess: sess, out: os.Stdout}
	state.endpoint.Store(cfg.Backend.Endpoint)

	// Follow config edits: later prompts go to the new endpoint.
	if _, statErr := os.Stat(path); statErr == nil {
		w, err := config.Watch(path, func(c *config.Config) {
			if args.Endpoint != "" {
				c.Backend.Endpoint = args.Endpoint
			}
			sess.SetSource(NewSource(c, logger))
			state.endpoint.Store(c.Backend.Endpoint)
		}, config.WithWatchLogger(logger))
		if err != nil {
			logger.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", path, err)
		} else {
			defer w.Close()
		}
	}

	input := newChatInput()
	defer input.Close()

	var streaming atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if streaming.Load() && sess.Cancel() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	if !args.Quiet {
		printChatWelcome(state)
	}

	var status io.Writer = os.Stderr
	if args.Quiet {
		status = nil
	}
	printer := newReplyPrinter(os.Stdout, status)

	for {
		line, err := input.ReadInput(promptStyle.Render("agchat> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed stdin.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				logger.Printf("CHAT_INPUT_ERROR | error=%v", err)
			}
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !handleSlashCommand(line, state) {
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		streaming.Store(true)
		sess.Submit(line)
		final := waitRun(sess, pub, printer.Update)
		streaming.Store(false)
		printer.Finish()

		if err := runError(final); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

// handleSlashCommand runs a slash command. It returns false to exit.
func handleSlashCommand(line string, state *chatState) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/help", "/h", "/?", "/":
		printChatHelp(state.out)
	case "/new", "/clear", "/c":
		state.sess.Reset()
		fmt.Fprintln(state.out, DimStyle.Render("[Conversation cleared]"))
	case "/history":
		renderTranscript(state.out, state.sess.Snapshot(), nil)
	case "/tools", "/t":
		renderToolCalls(state.out, state.sess.Snapshot().ToolCalls)
	case "/diag", "/d":
		renderDiagnostics(state.out, state.sess.Snapshot().Diagnostics)
	case "/status", "/s":
		snap := state.sess.Snapshot()
		fmt.Fprintf(state.out, "%s%s\n", RenderLabel("Endpoint"), state.endpoint.Load())
		fmt.Fprintf(state.out, "%s%d\n", RenderLabel("Messages"), len(snap.Messages))
		fmt.Fprintf(state.out, "%s%d\n", RenderLabel("Tool calls"), len(snap.ToolCalls))
		renderStatus(state.out, snap.State)
	case "/quit", "/q", "/exit":
		return false
	default:
		fmt.Fprintf(os.Stderr, "%s unknown command: %s (type /help for commands)\n",
			ErrorStyle.Render("[Error]"), fields[0])
	}
	return true
}

func printChatWelcome(state *chatState) {
	fmt.Fprintln(state.out, TitleStyle.Render("agchat "+Version))
	fmt.Fprintf(state.out, "%s\n", DimStyle.Render(fmt.Sprintf("Connected to %s. Type /help for commands.", state.endpoint.Load())))
	fmt.Fprintln(state.out)
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	fmt.Fprintln(w, "  /new        Start a new conversation")
	fmt.Fprintln(w, "  /history    Show the conversation so far")
	fmt.Fprintln(w, "  /tools      Show tool calls with arguments and results")
	fmt.Fprintln(w, "  /diag       Show stream diagnostics")
	fmt.Fprintln(w, "  /status     Show endpoint and run status")
	fmt.Fprintln(w, "  /quit       Exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, DimStyle.Render("Ctrl+C stops the current reply and keeps the conversation."))
}
