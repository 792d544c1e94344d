// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/agchat/internal/event"
	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/transport"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// DefaultIndicatorInterval is how often the thinking indicator advances.
const DefaultIndicatorInterval = 350 * time.Millisecond

// Config holds configuration for a Session.
type Config struct {
	// ArgsMode selects how tool argument deltas combine.
	ArgsMode run.ArgsMode

	// Placeholder enables the provisional thinking message.
	Placeholder bool

	// IndicatorInterval is the animation period (default: 350ms).
	IndicatorInterval time.Duration

	// IndicatorMaxDots is the longest indicator before it wraps (default: 7).
	IndicatorMaxDots int

	// FallbackText replaces the reply after a transport failure.
	FallbackText string

	// MaxLineBytes caps a single stream line (default: 1MB).
	MaxLineBytes int

	// Logger receives session, run and diagnostic log lines.
	Logger *log.Logger

	// MachineOptions are appended to the options derived from this config.
	MachineOptions []run.Option
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		ArgsMode:          run.ArgsAppend,
		Placeholder:       true,
		IndicatorInterval: DefaultIndicatorInterval,
		IndicatorMaxDots:  run.DefaultIndicatorMaxDots,
		FallbackText:      run.DefaultFallbackText,
		MaxLineBytes:      transport.DefaultMaxLineBytes,
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session connects a stream source to a run machine and publishes a
// snapshot after every step.
//
// Each Submit starts a new generation. The previous run's request is
// cancelled and anything it still produces is discarded by the machine's
// generation check, so it is never published. All steps are applied under
// one lock, one at a time, in stream order.
type Session struct {
	mu        sync.Mutex
	machine   *run.Machine
	source    transport.Source
	pub       Publisher
	cfg       Config
	logger    *log.Logger
	cancelMgr *cancelManager
	current   *indicator
	closed    bool

	wg         sync.WaitGroup
	indicators atomic.Int64
}

// New creates a session reading from src and publishing to pub.
// A nil pub discards snapshots.
func New(cfg Config, src transport.Source, pub Publisher) *Session {
	if pub == nil {
		pub = discardPublisher{}
	}
	if cfg.IndicatorInterval <= 0 {
		cfg.IndicatorInterval = DefaultIndicatorInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	opts := []run.Option{
		run.WithArgsMode(cfg.ArgsMode),
		run.WithPlaceholder(cfg.Placeholder),
		run.WithIndicatorMaxDots(cfg.IndicatorMaxDots),
		run.WithFallbackText(cfg.FallbackText),
		run.WithLogger(logger),
	}
	opts = append(opts, cfg.MachineOptions...)

	return &Session{
		machine:   run.NewMachine(opts...),
		source:    src,
		pub:       pub,
		cfg:       cfg,
		logger:    logger,
		cancelMgr: newCancelManager(),
	}
}

// SetSource replaces the stream source used by later submits.
func (s *Session) SetSource(src transport.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
}

// Submit starts a run for prompt and returns its generation. A run still
// in flight is superseded. Submit returns 0 after Close.
func (s *Session) Submit(prompt string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	s.cancelMgr.cancel()
	s.current.Stop()

	gen := s.machine.Begin(prompt)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelMgr.set(cancel)

	var ind *indicator
	if s.machine.IndicatorActive() {
		ind = startIndicator(s.cfg.IndicatorInterval, &s.indicators, func() {
			s.step(gen, nil, func(m *run.Machine) bool { return m.Tick(gen) })
		})
	}
	s.current = ind

	s.pub.Publish(s.machine.Snapshot())
	s.logger.Printf("SESSION_SUBMIT | gen=%d", gen)

	s.wg.Add(1)
	go s.stream(ctx, cancel, gen, prompt, s.source, ind)
	return gen
}

// Reset clears the conversation and abandons any run in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelMgr.cancel()
	s.current.Stop()
	s.current = nil
	s.machine.Reset()
	s.pub.Publish(s.machine.Snapshot())
}

// Cancel stops the run in flight and keeps the conversation. It returns
// false if nothing was running.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.cancelMgr.cancel()
	s.current.Stop()
	s.current = nil
	if !s.machine.Cancel() {
		return false
	}
	s.pub.Publish(s.machine.Snapshot())
	return true
}

// Snapshot returns the current state.
func (s *Session) Snapshot() run.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Snapshot()
}

// Wait blocks until every run goroutine has exited.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels any run in flight and waits for it to exit. Nothing is
// published after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancelMgr.cancel()
	s.current.Stop()
	s.current = nil
	s.mu.Unlock()
	s.wg.Wait()
}

// =============================================================================
// RUN LOOP
// =============================================================================

// stream reads, parses and applies one payload at a time until the stream
// ends, fails or the run goes stale.
func (s *Session) stream(ctx context.Context, cancel context.CancelFunc, gen uint64, prompt string, src transport.Source, ind *indicator) {
	defer s.wg.Done()
	defer ind.Stop()
	defer cancel()

	if src == nil {
		s.step(gen, ind, func(m *run.Machine) bool { return m.Fail(gen, transport.ErrNoEndpoint) })
		return
	}

	body, err := src.Open(ctx, prompt)
	if err != nil {
		s.step(gen, ind, func(m *run.Machine) bool { return m.Fail(gen, err) })
		return
	}
	defer body.Close()
	// Closing the body unblocks a read on sources that ignore ctx.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	reader := transport.NewReader(body, transport.WithMaxLineBytes(s.cfg.MaxLineBytes))
	payloads := 0
	for {
		payload, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.step(gen, ind, func(m *run.Machine) bool { return m.End(gen) })
			s.logger.Printf("STREAM_END | gen=%d payloads=%d dropped=%d", gen, payloads, reader.Dropped())
			return
		}
		if err != nil {
			s.step(gen, ind, func(m *run.Machine) bool { return m.Fail(gen, err) })
			return
		}
		payloads++

		ev, perr := event.Parse(payload)
		var applied bool
		if perr != nil {
			applied = s.step(gen, ind, func(m *run.Machine) bool { return m.Reject(gen, perr) })
		} else {
			applied = s.step(gen, ind, func(m *run.Machine) bool { return m.Apply(gen, ev) })
		}
		if !applied {
			s.logger.Printf("STREAM_ABANDONED | gen=%d payloads=%d", gen, payloads)
			return
		}
	}
}

// step applies fn under the lock and publishes the result. It returns
// false if the session is closed or fn reported no change, which for
// Apply and Reject means the generation is stale.
func (s *Session) step(gen uint64, ind *indicator, fn func(*run.Machine) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !fn(s.machine) {
		return false
	}
	if !s.machine.IndicatorActive() {
		ind.Stop()
		if s.current != nil && s.machine.Generation() == gen {
			s.current.Stop()
		}
	}
	s.pub.Publish(s.machine.Snapshot())
	return true
}
