// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the agchat front ends.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: Truncation by terminal display width
//   - StringWidth: Display width of a string in terminal columns
//
// File Operations:
//   - WritePrivateFile: Owner-only, crash-safe replacement of a file
//
// # Usage
//
//	// Fit a tool call header into the viewport
//	header := util.TruncateWidth(title, width)
//
//	// Save the config file owner-only
//	err := util.WritePrivateFile(path, data)
package util
