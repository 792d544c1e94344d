// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init                Write a default configuration file
//   get <key>           Print one value
//   set <key> <value>   Set a value in the configuration file
//
// Examples:
//   agchat config set backend.endpoint http://localhost:8000/agent
//   agchat config set stream.args_mode replace
//   agchat config get ui.theme
//   agchat --json config show
//
// show and get report the effective values, including environment and
// flag overrides. set only edits the file.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/agchat/internal/config"
)

// HandleConfigCommand handles "agchat config".
func HandleConfigCommand(args Args, w io.Writer) error {
	switch strings.ToLower(args.Subcommand) {
	case "", "show":
		return handleConfigShow(args, w)
	case "path":
		return handleConfigPath(args, w)
	case "init":
		return handleConfigInit(args, w)
	case "get":
		return handleConfigGet(args, w)
	case "set":
		return handleConfigSet(args, w)
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown config subcommand",
			Example: "agchat config [show|path|init|get KEY|set KEY VALUE]",
		}
	}
}

// configFilePath is the file the config command reads and writes.
func configFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.Path()
}

func handleConfigShow(args Args, w io.Writer) error {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path, Config: cfg}).Print(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("agchat configuration"))
	fmt.Fprintln(w, RenderSeparator())
	section := ""
	for _, key := range config.GetAllKeys() {
		prefix, name, _ := strings.Cut(key, ".")
		if prefix != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, "["+prefix+"]")
			section = prefix
		}
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s%v\n", RenderLabel(name), value)
	}
	fmt.Fprintln(w, RenderSeparator())
	fmt.Fprintf(w, "Config file: %s\n", path)
	return nil
}

func handleConfigPath(args Args, w io.Writer) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path}).Print(w)
	}
	fmt.Fprintln(w, path)
	return nil
}

func handleConfigInit(args Args, w io.Writer) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return NewCommandError("config", "init", "file already exists: "+path, nil)
	}
	if err := saveConfigFile(config.Default(), path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path}).Print(w)
	}
	fmt.Fprintf(w, "Wrote default configuration to %s\n", path)
	return nil
}

func handleConfigGet(args Args, w io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "agchat config get stream.args_mode")
	}
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}
	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path, Key: args.ConfigKey, Value: value}).Print(w)
	}
	fmt.Fprintf(w, "%v\n", value)
	return nil
}

func handleConfigSet(args Args, w io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "agchat config set backend.endpoint http://localhost:8000/agent")
	}
	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	// Start from the file alone so environment overrides are not saved.
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return NewCommandError("config", "set", "cannot read "+path, err)
		}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: args.ConfigKey, Value: args.ConfigVal, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := saveConfigFile(cfg, path); err != nil {
		return err
	}

	if args.JSON {
		value, _ := cfg.Get(args.ConfigKey)
		return NewJSONResponse("config", ConfigData{Path: path, Key: args.ConfigKey, Value: value}).Print(w)
	}
	fmt.Fprintf(w, "Set %s = %s\n", args.ConfigKey, args.ConfigVal)
	return nil
}

func saveConfigFile(cfg *config.Config, path string) error {
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return NewCommandError("config", "save", "cannot write "+path, err)
	}
	return nil
}
