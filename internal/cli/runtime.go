// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Config, logging and session wiring shared by the commands.

package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jeranaias/agchat/internal/config"
	"github.com/jeranaias/agchat/internal/session"
	"github.com/jeranaias/agchat/internal/transport"
)

// LoadConfig loads the configuration and applies command-line overrides.
// It returns the config and the file it was (or would be) read from.
func LoadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if args.ConfigPath != "" {
		path = args.ConfigPath
		cfg, err = config.LoadFromPath(path)
	} else {
		path, _ = config.Path()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if args.Endpoint != "" {
		cfg.Backend.Endpoint = args.Endpoint
		if err := cfg.Validate(); err != nil {
			return nil, path, fmt.Errorf("invalid config: %w", err)
		}
	}
	if args.Verbose {
		cfg.Log.Verbose = true
	}
	return cfg, path, nil
}

// OpenLogger returns the logger for a command. The log file wins; otherwise
// verbose mode logs to stderr when allowStderr is set. The returned closer
// is never nil.
func OpenLogger(cfg *config.Config, allowStderr bool) (*log.Logger, func() error, error) {
	noop := func() error { return nil }

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open log file: %w", err)
		}
		return log.New(f, "agchat ", log.LstdFlags|log.Lmicroseconds), f.Close, nil
	}
	if cfg.Log.Verbose && allowStderr {
		return log.New(os.Stderr, "agchat ", log.Ltime|log.Lmicroseconds), noop, nil
	}
	return log.New(io.Discard, "", 0), noop, nil
}

// NewSource builds the HTTP stream source for the configured endpoint.
func NewSource(cfg *config.Config, logger *log.Logger) *transport.Client {
	return transport.NewClient(cfg.Backend.Endpoint,
		transport.WithPromptParam(cfg.Backend.PromptParam),
		transport.WithHeaderTimeout(cfg.HeaderTimeout()),
		transport.WithLogger(logger),
	)
}

// SessionConfig derives the session settings from cfg.
func SessionConfig(cfg *config.Config, logger *log.Logger) session.Config {
	sc := session.DefaultConfig()
	sc.ArgsMode = cfg.ArgsMode()
	sc.Placeholder = cfg.Stream.Placeholder
	sc.IndicatorInterval = cfg.IndicatorInterval()
	sc.IndicatorMaxDots = cfg.Stream.IndicatorMaxDots
	sc.FallbackText = cfg.Stream.FallbackText
	sc.MaxLineBytes = cfg.Backend.MaxLineBytes
	sc.Logger = logger
	return sc
}
