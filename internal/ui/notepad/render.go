// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/notepad-tui/internal/textbuf"
	"github.com/jeranaias/notepad-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

// row is one visual line of a laid-out buffer.
type row struct {
	// start is the rune offset of the row's first rune in the buffer.
	start int
	text  []rune
}

// layout splits text into visual rows no wider than width cells. With wrap
// off every logical line is a single row and is cut at render time.
func layout(text []rune, width int, wrap bool) []row {
	var rows []row
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != '\n' {
			continue
		}
		line := text[start:i]
		if wrap && width > 0 {
			rows = append(rows, wrapLine(line, start, width)...)
		} else {
			rows = append(rows, row{start: start, text: line})
		}
		start = i + 1
	}
	return rows
}

// wrapLine breaks one logical line, preferring to break after a space.
func wrapLine(line []rune, start, width int) []row {
	if len(line) == 0 {
		return []row{{start: start}}
	}
	var rows []row
	i := 0
	for i < len(line) {
		w, j, brk := 0, i, -1
		for j < len(line) {
			cw := util.CellWidth(line[j])
			if w+cw > width && j > i {
				break
			}
			w += cw
			if line[j] == ' ' {
				brk = j + 1
			}
			j++
		}
		if j < len(line) && brk > i {
			j = brk
		}
		rows = append(rows, row{start: start + i, text: line[i:j]})
		i = j
	}
	return rows
}

// rowFor returns the index of the row holding buffer offset pos.
func rowFor(rows []row, pos int) int {
	i := sort.Search(len(rows), func(i int) bool { return rows[i].start > pos })
	if i == 0 {
		return 0
	}
	return i - 1
}

// offsetAt maps a cell column in row r to a buffer offset.
func offsetAt(r row, col int) int {
	return r.start + util.RuneOffsetAtCell(string(r.text), col)
}

// =============================================================================
// STYLED RENDERING
// =============================================================================

// tagStyler resolves the style for a tag name.
type tagStyler func(tag string) (lipgloss.Style, bool)

// paint computes, for every rune of buf, the index into styles of the
// topmost tag drawn there, or -1. Tags later in order are drawn on top.
func paint(buf *textbuf.Buffer, order []string, style tagStyler) ([]int, []lipgloss.Style) {
	marks := make([]int, buf.Len())
	for i := range marks {
		marks[i] = -1
	}
	var styles []lipgloss.Style
	for _, tag := range order {
		st, ok := style(tag)
		if !ok {
			continue
		}
		idx := len(styles)
		styles = append(styles, st)
		for _, r := range buf.TagRanges(tag) {
			for p := r.Start; p < r.End && p < len(marks); p++ {
				marks[p] = idx
			}
		}
	}
	return marks, styles
}

// renderRows draws rows with their tag styles. Rows wider than width are
// cut; tabs are expanded to spaces.
func renderRows(rows []row, marks []int, styles []lipgloss.Style, width int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = renderRow(r, marks, styles, width)
	}
	return out
}

func renderRow(r row, marks []int, styles []lipgloss.Style, width int) string {
	var sb strings.Builder
	var run strings.Builder
	cur := -1
	cells := 0

	flush := func() {
		if run.Len() == 0 {
			return
		}
		if cur >= 0 {
			sb.WriteString(styles[cur].Render(run.String()))
		} else {
			sb.WriteString(run.String())
		}
		run.Reset()
	}

	for k, ch := range r.text {
		cw := util.CellWidth(ch)
		if width > 0 && cells+cw > width {
			break
		}
		cells += cw

		m := -1
		if p := r.start + k; p < len(marks) {
			m = marks[p]
		}
		if m != cur {
			flush()
			cur = m
		}
		if ch == '\t' {
			run.WriteString(strings.Repeat(" ", util.TabWidth))
		} else {
			run.WriteRune(ch)
		}
	}
	flush()
	return sb.String()
}
