// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package highlight

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/notepad-tui/internal/textbuf"
	"github.com/jeranaias/notepad-tui/internal/tokens"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// Tag names used on the cross-reference panel buffer.
const (
	TagClicked = "clicked_word"
	TagFocus   = "focus_word"
)

// Query normalizes an activated word into a cross-reference query: NFC,
// trimmed of spaces and surrounding apostrophes, lower-cased rune by rune so
// it matches exactly what tokens.Find matches.
func Query(word string) string {
	return tokens.Lower(norm.NFC.String(strings.Trim(strings.TrimSpace(word), "'")))
}

// QueryAt returns the query for a click at pos in the transcript buffer.
// Only characters carrying user_word can be activated.
func QueryAt(buf *textbuf.Buffer, pos int) (string, bool) {
	if !buf.HasTag(transcript.TagUserWord, pos) {
		return "", false
	}
	r := buf.WordAt(pos, isQueryRune)
	q := Query(buf.Slice(r.Start, r.End))
	if q == "" {
		return "", false
	}
	return q, true
}

func isQueryRune(r rune) bool {
	return tokens.IsWordRune(r) || r == '\''
}

// =============================================================================
// PANEL
// =============================================================================

// Result describes the panel after an activation.
type Result struct {
	Query string
	// Count is the number of occurrences in the listed prompts.
	Count int
	// Index is the focused occurrence, or -1 when there is none.
	Index int
	// Focus is the focused range inside the panel buffer.
	Focus textbuf.Range
	// Line is the 0-based panel line holding the focus.
	Line int
}

// Panel lists every user prompt and cycles focus through the occurrences of
// the activated query. The cursor map persists for the life of the panel.
type Panel struct {
	buf     *textbuf.Buffer
	cursor  map[string]int
	visible bool
	last    Result
}

// NewPanel creates a hidden, empty panel.
func NewPanel() *Panel {
	return &Panel{
		buf:    textbuf.New(),
		cursor: make(map[string]int),
	}
}

// Buffer exposes the panel text and tags.
func (p *Panel) Buffer() *textbuf.Buffer {
	return p.buf
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	return p.visible
}

// Hide closes the panel. Cursors are kept.
func (p *Panel) Hide() {
	p.visible = false
}

// Last returns the result of the latest activation.
func (p *Panel) Last() Result {
	return p.last
}

// Cursor returns the next occurrence index stored for query.
func (p *Panel) Cursor(query string) int {
	return p.cursor[cursorKey(Query(query))]
}

// cursorKey folds a query so spellings that match the same occurrences
// (ΟΔΟΣ, οδος) share one cursor.
func cursorKey(query string) string {
	runes := []rune(query)
	for i, r := range runes {
		runes[i] = tokens.FoldRune(r)
	}
	return string(runes)
}

// Activate rebuilds the panel from users, tags every occurrence of query and
// focuses the next one in document order, wrapping after the last.
func (p *Panel) Activate(users []string, query string) Result {
	query = Query(query)
	p.visible = true

	var sb strings.Builder
	for i, u := range users {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(norm.NFC.String(u))
		sb.WriteByte('\n')
	}
	p.buf.SetText(sb.String())
	p.buf.ClearTag(TagClicked)
	p.buf.ClearTag(TagFocus)

	res := Result{Query: query, Index: -1}
	if query == "" {
		p.last = res
		return res
	}

	key := cursorKey(query)
	hits := tokens.FindWord([]rune(p.buf.String()), []rune(query))
	res.Count = len(hits)
	if len(hits) == 0 {
		p.cursor[key] = 0
		p.last = res
		return res
	}
	for _, h := range hits {
		p.buf.AddTag(TagClicked, h.Start, h.End)
	}

	i := p.cursor[key] % len(hits)
	focus := hits[i]
	p.buf.AddTag(TagFocus, focus.Start, focus.End)
	p.cursor[key] = (i + 1) % len(hits)

	res.Index = i
	res.Focus = textbuf.Range{Start: focus.Start, End: focus.End}
	res.Line = strings.Count(p.buf.Slice(0, focus.Start), "\n")
	p.last = res
	return res
}
