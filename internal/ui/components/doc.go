// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable views for the agchat TUI.
//
//   - CodeBlock: chroma-highlighted, line-numbered text; JSON is pretty-printed
//   - ToolCallView: one tool call with collapsible arguments and result
//   - ToolCallList: tool call views keyed by ID across snapshot updates
package components
