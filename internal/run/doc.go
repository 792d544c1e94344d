// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package run implements the run state machine and its tool call registry.
//
// A Machine is a pure, single-threaded fold: given the same prompts and the
// same ordered events it produces the same transcript. It never blocks and
// never performs I/O, so it can be driven directly in tests or by a
// session goroutine.
//
// # Generations
//
// Every run gets a generation number from Begin. Apply, Reject, Fail, End
// and Tick all take the generation the input belongs to; input tagged with
// an older generation is dropped without mutation. This is how a superseded
// stream is kept from corrupting the run that replaced it.
//
// # Terminal phases
//
// A run ends in exactly one of PhaseFinished or PhaseErrored. RUN_FINISHED,
// RUN_ERROR, a transport failure (Fail) or a clean end of stream without a
// terminal event (End) all lead to one of them. Anything arriving after is
// recorded as a diagnostic and ignored.
//
// # Usage
//
//	m := run.NewMachine()
//	gen := m.Begin("hello")
//	m.Apply(gen, event.MessageContent{Delta: "Hi"})
//	m.Apply(gen, event.RunFinished{})
//	snap := m.Snapshot()
package run
