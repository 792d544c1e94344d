// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for agchat.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdReplay
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdReplay:
		return "replay"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Endpoint   string
	ConfigPath string
	JSON       bool
	Quiet      bool
	Verbose    bool

	// Command-specific
	Query      string
	File       string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `agchat - terminal chat client for AG-UI event streams

agchat sends a prompt to an agent endpoint and renders the streamed
AG-UI events (text messages, tool calls, run lifecycle) as a live
transcript.

Usage:
  agchat                         Start the TUI (default)
  agchat ask "question"          Ask a single question and print the reply
  agchat chat                    Line-oriented interactive chat
  agchat replay FILE             Reduce a captured event stream and print it
  agchat config [show|path|init|get KEY|set KEY VALUE]
                                 Inspect or edit the configuration
  agchat version                 Show version information
  agchat help                    Show this help

Global flags:
  --endpoint URL    Agent endpoint (overrides config and AGCHAT_ENDPOINT)
  --config FILE     Read configuration from FILE
  --json            Machine-readable output (ask, replay, config, version)
  -q, --quiet       Minimal output
  -v, --verbose     Log stream diagnostics to stderr

Replay flags:
  --prompt TEXT     User prompt recorded in the transcript (default: replay)

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "agchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses a command line (without the program name).
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask", "a":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "replay":
		parseReplayArgs(&parsedArgs, remaining)
		return CmdReplay, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Anything else is a prompt for the TUI to submit on start.
		parsedArgs.Raw = append([]string{first}, remaining...)
		parsedArgs.Query = strings.Join(parsedArgs.Raw, " ")
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Flags are recognised anywhere on the line; "--" ends flag parsing.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--":
			remaining = append(remaining, args[i+1:]...)
			return remaining, parsedArgs
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--endpoint":
			if i+1 < len(args) {
				i++
				parsedArgs.Endpoint = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--endpoint="):
				parsedArgs.Endpoint = strings.TrimPrefix(arg, "--endpoint=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseReplayArgs parses "replay FILE [--prompt TEXT]".
func parseReplayArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.File = p.Positional(0)
	args.Query = p.FlagOrDefault("prompt", "replay")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	exitOnError(HandleAskCommand(args), args.JSON)
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	exitOnError(HandleChatCommand(args), false)
}

// HandleReplay handles the "replay" command.
func HandleReplay(args Args) {
	exitOnError(HandleReplayCommand(args, os.Stdout), args.JSON)
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	exitOnError(HandleConfigCommand(args, os.Stdout), args.JSON)
}

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		NewJSONResponse("version", data).Print(os.Stdout)
		return
	}
	PrintVersion(os.Stdout)
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}

// exitOnError reports err and exits with its exit code.
func exitOnError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}
