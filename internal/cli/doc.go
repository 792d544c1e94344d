// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// agchat.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Flag and positional parsing for subcommands
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdReplay:
//	    cli.HandleReplay(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Send one prompt and print the streamed reply
//   - chat: Line-oriented interactive chat
//   - replay: Reduce a captured event stream from a file
//   - config: Show, initialise and edit the configuration
//   - version: Version information
//
// LoadConfig, OpenLogger, NewSource and SessionConfig are shared with the
// TUI entry point so every front end wires the session the same way.
package cli
