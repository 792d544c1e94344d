// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package run

import (
	"io"
	"log"
	"strings"

	"github.com/jeranaias/agchat/internal/event"
	"github.com/jeranaias/agchat/internal/model"
)

// =============================================================================
// MACHINE CONSTANTS
// =============================================================================

const (
	// DefaultFallbackText replaces the assistant reply when the transport fails.
	DefaultFallbackText = "Sorry, an error occurred. Please try again."

	// ReasonTransport is the Errored reason recorded for transport failures.
	ReasonTransport = "transport failure"

	// ReasonUnknown is used when a run error carries no message.
	ReasonUnknown = "unknown error"

	// IndicatorDot is the glyph the thinking indicator repeats.
	IndicatorDot = "●"

	// DefaultIndicatorMaxDots is the longest indicator before it wraps to one dot.
	DefaultIndicatorMaxDots = 7

	errorPrefix = "Error: "
)

// =============================================================================
// MACHINE
// =============================================================================

// Machine folds run events into a conversation.
//
// Every mutating method takes the generation of the run the input belongs
// to. Input for any generation other than the current one is discarded
// without touching state. A Machine is not safe for concurrent use.
type Machine struct {
	conv   *model.Conversation
	state  State
	tools  *Registry
	openID string
	diags  diagLog
	dots   int
	seq    uint64

	argsMode    ArgsMode
	placeholder bool
	maxDots     int
	fallback    string
	convOpts    []model.Option
	logger      *log.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithArgsMode selects how tool argument deltas combine.
func WithArgsMode(mode ArgsMode) Option {
	return func(m *Machine) {
		m.argsMode = mode
	}
}

// WithPlaceholder enables the provisional thinking message opened by Begin.
func WithPlaceholder(enabled bool) Option {
	return func(m *Machine) {
		m.placeholder = enabled
	}
}

// WithIndicatorMaxDots sets how many dots the indicator grows to.
func WithIndicatorMaxDots(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxDots = n
		}
	}
}

// WithFallbackText sets the reply shown after a transport failure.
func WithFallbackText(text string) Option {
	return func(m *Machine) {
		if text != "" {
			m.fallback = text
		}
	}
}

// WithConversation passes options to the underlying conversation,
// e.g. a deterministic ID generator or clock.
func WithConversation(opts ...model.Option) Option {
	return func(m *Machine) {
		m.convOpts = append(m.convOpts, opts...)
	}
}

// WithLogger sets the logger for transitions and diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxDiagnostics bounds the retained diagnostics. Zero disables them.
func WithMaxDiagnostics(n int) Option {
	return func(m *Machine) {
		if n >= 0 {
			m.diags.max = n
		}
	}
}

// NewMachine creates an idle machine with an empty conversation.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		tools:       NewRegistry(),
		diags:       diagLog{max: DefaultMaxDiagnostics},
		argsMode:    ArgsAppend,
		placeholder: true,
		maxDots:     DefaultIndicatorMaxDots,
		fallback:    DefaultFallbackText,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.conv = model.NewConversation(m.convOpts...)
	return m
}

// =============================================================================
// RUN LIFECYCLE
// =============================================================================

// Generation returns the current run generation.
func (m *Machine) Generation() uint64 {
	return m.state.Generation
}

// State returns the current run state.
func (m *Machine) State() State {
	return m.state
}

// Begin starts a new run for prompt and returns its generation.
// The user message is appended and, if enabled, a provisional assistant
// message showing the thinking indicator is opened. A run still in flight
// is superseded: its open message is closed and its later input is stale.
func (m *Machine) Begin(prompt string) uint64 {
	if m.state.Running {
		m.diag(m.state.Generation, DiagSuperseded, "run superseded by new prompt")
		m.closeOpen()
	}

	m.state = State{
		Phase:      PhaseSubmitted,
		Generation: m.state.Generation + 1,
		Running:    true,
	}
	m.conv.AddUserMessage(prompt)
	m.tools.Reset()
	m.dots = 0

	if m.placeholder {
		msg := m.conv.AddAssistantMessage(IndicatorDot)
		msg.Placeholder = true
		m.openID = msg.ID
		m.dots = 1
	}

	m.seq++
	m.logger.Printf("RUN_BEGIN | gen=%d prompt_len=%d", m.state.Generation, len(prompt))
	return m.state.Generation
}

// Reset clears the conversation, tool calls and diagnostics and abandons
// any run in flight. It returns the new generation.
func (m *Machine) Reset() uint64 {
	m.conv.Reset()
	m.tools.Reset()
	m.diags.reset()
	m.openID = ""
	m.dots = 0
	m.state = State{Phase: PhaseIdle, Generation: m.state.Generation + 1}
	m.seq++
	m.logger.Printf("RUN_RESET | gen=%d", m.state.Generation)
	return m.state.Generation
}

// Cancel abandons the run in flight but keeps the conversation. Streamed
// text stays as a closed message and later input for the run is stale.
// It returns false if no run was in flight.
func (m *Machine) Cancel() bool {
	if !m.state.Running {
		return false
	}
	m.diag(m.state.Generation, DiagSuperseded, "run cancelled")
	m.closeOpen()
	m.state = State{Phase: PhaseIdle, Generation: m.state.Generation + 1}
	m.seq++
	m.logger.Printf("RUN_CANCELLED | gen=%d", m.state.Generation)
	return true
}

// Apply folds one event into the current run.
// It returns false only when gen is stale, in which case nothing changed.
// Events that are no-ops for the transcript still return true.
func (m *Machine) Apply(gen uint64, ev event.Event) bool {
	if gen != m.state.Generation {
		return false
	}
	m.seq++

	if m.state.Phase.IsTerminal() {
		m.diag(gen, DiagAfterTerminal, "ignored "+string(ev.Type())+" after "+m.state.Phase.String())
		return true
	}

	switch e := ev.(type) {
	case event.RunStarted:
		m.setPhase(PhaseStarted)

	case event.MessageStart:
		m.ensureOpen()
		m.setPhase(PhaseAwaitingMessage)

	case event.MessageContent:
		msg := m.ensureOpen()
		if msg.Placeholder {
			msg.Replace("")
			msg.Placeholder = false
		}
		msg.Append(e.Delta)
		m.setPhase(PhaseTyping)

	case event.MessageEnd:
		m.closeOpen()
		m.setPhase(PhaseIdle)

	case event.ToolCallStart:
		if err := m.tools.Start(e.ID, e.Name); err != nil {
			m.diag(gen, DiagToolCall, err.Error())
			break
		}
		tc, _ := m.tools.Get(e.ID)
		m.setPhase(PhaseCallingTool)
		m.state.Tool = tc.Name

	case event.ToolCallArgs:
		if err := m.tools.AddArgs(e.ID, e.Delta, m.argsMode); err != nil {
			m.diag(gen, DiagToolCall, err.Error())
		}

	case event.ToolCallResult:
		if err := m.tools.Complete(e.ID, e.Content); err != nil {
			m.diag(gen, DiagToolCall, err.Error())
			break
		}
		m.setPhase(PhaseProcessingResult)

	case event.RunFinished:
		m.finish()

	case event.RunError:
		reason := strings.TrimSpace(e.Reason)
		if reason == "" {
			reason = ReasonUnknown
		}
		m.fail(reason, errorPrefix+reason)

	case event.Unknown:
		kind := e.Kind
		if kind == "" {
			kind = "<missing>"
		}
		m.diag(gen, DiagUnknownEvent, "type="+kind)
	}
	return true
}

// Reject records a payload that could not be parsed. The transcript is
// unchanged. It returns false when gen is stale.
func (m *Machine) Reject(gen uint64, err error) bool {
	if gen != m.state.Generation {
		return false
	}
	m.seq++
	m.diag(gen, DiagParseError, err.Error())
	return true
}

// Fail ends the run after a transport failure. The open assistant message,
// or a new one, receives the fallback text. It returns false when gen is
// stale or the run had already ended.
func (m *Machine) Fail(gen uint64, err error) bool {
	if gen != m.state.Generation || m.state.Phase.IsTerminal() {
		return false
	}
	m.seq++
	detail := ReasonTransport
	if err != nil {
		detail = err.Error()
	}
	m.diag(gen, DiagTransportFailure, detail)
	m.fail(ReasonTransport, m.fallback)
	return true
}

// End handles a clean end of stream. A run that never reported a terminal
// event is finished. It returns false when gen is stale or the run had
// already ended.
func (m *Machine) End(gen uint64) bool {
	if gen != m.state.Generation || m.state.Phase.IsTerminal() || !m.state.Running {
		return false
	}
	m.seq++
	m.diag(gen, DiagUnterminated, "stream ended without RUN_FINISHED or RUN_ERROR")
	m.finish()
	return true
}

// Tick advances the thinking indicator. It returns true if the visible
// content changed.
func (m *Machine) Tick(gen uint64) bool {
	if gen != m.state.Generation || !m.IndicatorActive() {
		return false
	}
	msg := m.open()
	m.dots = m.dots%m.maxDots + 1
	msg.Replace(strings.Repeat(IndicatorDot, m.dots))
	m.seq++
	return true
}

// IndicatorActive returns true while the provisional thinking message is
// still showing.
func (m *Machine) IndicatorActive() bool {
	if m.state.Phase.IsTerminal() {
		return false
	}
	msg := m.open()
	return msg != nil && msg.Placeholder
}

// =============================================================================
// INTERNAL TRANSITIONS
// =============================================================================

func (m *Machine) setPhase(p Phase) {
	m.state.Phase = p
	m.state.Tool = ""
}

// open returns the open assistant message, or nil.
func (m *Machine) open() *model.Message {
	if m.openID == "" {
		return nil
	}
	msg := m.conv.Get(m.openID)
	if msg == nil || !msg.Open {
		return nil
	}
	return msg
}

// ensureOpen returns the open assistant message, creating one if needed.
func (m *Machine) ensureOpen() *model.Message {
	if msg := m.open(); msg != nil {
		return msg
	}
	msg := m.conv.AddAssistantMessage("")
	m.openID = msg.ID
	return msg
}

// closeOpen closes the open message. Indicator content never survives
// into a closed message.
func (m *Machine) closeOpen() {
	if msg := m.open(); msg != nil {
		if msg.Placeholder {
			msg.Replace("")
		}
		msg.Close()
	}
	m.openID = ""
}

func (m *Machine) finish() {
	m.closeOpen()
	m.state.Phase = PhaseFinished
	m.state.Tool = ""
	m.state.Running = false
	m.logger.Printf("RUN_FINISHED | gen=%d messages=%d tool_calls=%d",
		m.state.Generation, m.conv.Len(), m.tools.Len())
}

func (m *Machine) fail(reason, content string) {
	if msg := m.open(); msg != nil {
		msg.Replace(content)
		msg.Close()
	} else {
		m.conv.AddClosedAssistantMessage(content)
	}
	m.openID = ""
	m.state.Phase = PhaseErrored
	m.state.Tool = ""
	m.state.Reason = reason
	m.state.Running = false
	m.logger.Printf("RUN_ERRORED | gen=%d reason=%q", m.state.Generation, reason)
}

func (m *Machine) diag(gen uint64, kind DiagnosticKind, detail string) {
	m.diags.add(Diagnostic{Generation: gen, Kind: kind, Detail: detail})
	m.logger.Printf("RUN_DIAG | gen=%d kind=%s detail=%q", gen, kind, detail)
}
