// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateRunes shortens s to at most maxRunes runes, ending in "..." when
// anything was cut.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth shortens s to fit maxWidth terminal cells. Wide runes
// (CJK, emoji) count as two cells.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// TabWidth is the number of cells a tab occupies on screen.
const TabWidth = 4

// CellWidth returns the terminal cells r occupies. Tabs are expanded to
// TabWidth; other control characters take no space.
func CellWidth(r rune) int {
	if r == '\t' {
		return TabWidth
	}
	return runewidth.RuneWidth(r)
}

// RuneOffsetAtCell maps a terminal cell column within line to a rune
// offset. Columns past the end map to the line length.
func RuneOffsetAtCell(line string, col int) int {
	if col <= 0 {
		return 0
	}
	width := 0
	i := 0
	for _, r := range line {
		w := CellWidth(r)
		if width+w > col {
			return i
		}
		width += w
		i++
	}
	return i
}
