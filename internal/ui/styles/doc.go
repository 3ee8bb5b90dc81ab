// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for the notepad TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection; the theme can also be forced with [ui] theme in config.toml.

# Tag Styles

Transcript tags map to styles through Theme.TagStyle:

  - user_word: bold and underlined while the highlight style is on, plain otherwise
  - find_highlight: yellow background
  - clicked_word: yellow background (cross-reference panel)
  - focus_word: gold background (cross-reference panel)

# Usage

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	header := theme.Header.Render("notepad")
*/
package styles
