// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the color palette and lip gloss styles for the
agchat TUI.

All colors are lipgloss.AdaptiveColor values. NewTheme picks the light or
dark variant from the ui.theme setting, asking the terminal when the mode is
"auto".

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	header := theme.HeaderTitle.Render("agchat")

Status indicators ([OK], [X], [*]) accompany colors so that tool and run
state stay readable on monochrome terminals.
*/
package styles
