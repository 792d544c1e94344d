// agchat - A terminal chat client for AG-UI agent event streams.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agchat/internal/cli"
	"github.com/jeranaias/agchat/internal/config"
	"github.com/jeranaias/agchat/internal/session"
	"github.com/jeranaias/agchat/internal/ui/chat"
	"github.com/jeranaias/agchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdReplay:
		cli.HandleReplay(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersionWithJSON(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.PrintUsage()
		os.Exit(cli.ExitUsageError)
	}
}

// =============================================================================
// TUI
// =============================================================================

// runTUI starts the full-screen chat. A query given on the command line is
// submitted as soon as the screen is up.
func runTUI(args cli.Args) {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, "agchat: the TUI needs a terminal; use 'agchat ask' or 'agchat chat' instead")
		os.Exit(cli.ExitUsageError)
	}

	cfg, path, err := cli.LoadConfig(args)
	if err == nil {
		err = cli.RequireEndpoint(cfg)
	}
	if err != nil {
		cli.DisplayError(err, false)
		os.Exit(cli.GetExitCode(err))
	}

	logger, closeLog, err := cli.OpenLogger(cfg, false)
	if err != nil {
		cli.DisplayError(err, false)
		os.Exit(cli.GetExitCode(err))
	}
	defer closeLog()

	pub := session.NewChannelPublisher()
	sess := session.New(cli.SessionConfig(cfg, logger), cli.NewSource(cfg, logger), pub)
	defer sess.Close()

	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(theme, sess, pub.C(), chat.Options{
		Endpoint:       cfg.Backend.Endpoint,
		InitialQuery:   args.Query,
		Markdown:       cfg.UI.Markdown,
		SubmitInterval: cfg.SubmitInterval(),
		Plain:          !cli.ColorsEnabled(),
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse wheel scrolling
	)

	// Follow config edits: later prompts go to the new endpoint.
	if _, statErr := os.Stat(path); statErr == nil {
		w, err := config.Watch(path, func(c *config.Config) {
			if args.Endpoint != "" {
				c.Backend.Endpoint = args.Endpoint
			}
			sess.SetSource(cli.NewSource(c, logger))
			p.Send(chat.EndpointChangedMsg{Endpoint: c.Backend.Endpoint})
		}, config.WithWatchLogger(logger))
		if err != nil {
			logger.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", path, err)
		} else {
			defer w.Close()
		}
	}

	logger.Printf("TUI_START | endpoint=%s", cfg.Backend.Endpoint)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running agchat: %v\n", err)
		os.Exit(cli.ExitGeneralError)
	}
}
