// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package textbuf

import (
	"fmt"
	"strconv"
	"strings"
)

// Start is the index of the first rune in any buffer.
const Start = "1.0"

// Index formats pos as "line.column" with 1-based lines and 0-based columns.
func (b *Buffer) Index(pos int) string {
	pos = b.clamp(pos)
	line, col := 1, 0
	for _, r := range b.text[:pos] {
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return strconv.Itoa(line) + "." + strconv.Itoa(col)
}

// Pos converts a "line.column" index back into a rune offset. Columns past
// the end of a line clamp to the line end; lines past the end clamp to the
// buffer end.
func (b *Buffer) Pos(index string) (int, error) {
	lineStr, colStr, ok := strings.Cut(index, ".")
	if !ok {
		return 0, fmt.Errorf("invalid index %q", index)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line in index %q", index)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 0 {
		return 0, fmt.Errorf("invalid column in index %q", index)
	}

	pos := 0
	for l := 1; l < line; l++ {
		next := pos
		for next < len(b.text) && b.text[next] != '\n' {
			next++
		}
		if next >= len(b.text) {
			return len(b.text), nil
		}
		pos = next + 1
	}
	for c := 0; c < col && pos < len(b.text) && b.text[pos] != '\n'; c++ {
		pos++
	}
	return pos, nil
}

// LineStart returns the offset of the first rune on the line holding pos.
func (b *Buffer) LineStart(pos int) int {
	pos = b.clamp(pos)
	for pos > 0 && b.text[pos-1] != '\n' {
		pos--
	}
	return pos
}
