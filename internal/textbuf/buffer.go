// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package textbuf provides a rune-indexed text buffer with named tags and
// marks, the storage behind the transcript and cross-reference panes.
package textbuf

import (
	"sort"
	"unicode"
)

// =============================================================================
// TYPES
// =============================================================================

// Range is a half-open rune range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether pos lies inside the range.
func (r Range) Contains(pos int) bool {
	return pos >= r.Start && pos < r.End
}

// Gravity decides which way a mark moves when text is inserted exactly at it.
type Gravity int

const (
	// GravityRight marks move past text inserted at their position.
	GravityRight Gravity = iota
	// GravityLeft marks stay before text inserted at their position.
	GravityLeft
)

type mark struct {
	pos     int
	gravity Gravity
}

// Buffer is a mutable sequence of runes carrying tags and marks.
//
// Tags are stored per name as sorted, non-overlapping ranges. Marks are named
// positions that follow edits. Buffer is not safe for concurrent use; the UI
// goroutine owns it.
type Buffer struct {
	text  []rune
	tags  map[string][]Range
	marks map[string]*mark
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{
		tags:  make(map[string][]Range),
		marks: make(map[string]*mark),
	}
}

// =============================================================================
// TEXT
// =============================================================================

// Len returns the buffer length in runes.
func (b *Buffer) Len() int {
	return len(b.text)
}

// String returns the full buffer contents.
func (b *Buffer) String() string {
	return string(b.text)
}

// Slice returns the text in [start, end), clamped to the buffer.
func (b *Buffer) Slice(start, end int) string {
	start, end = b.clampRange(start, end)
	return string(b.text[start:end])
}

// RuneAt returns the rune at pos, or 0 when pos is out of range.
func (b *Buffer) RuneAt(pos int) rune {
	if pos < 0 || pos >= len(b.text) {
		return 0
	}
	return b.text[pos]
}

// Append inserts s at the end of the buffer and returns where it starts.
func (b *Buffer) Append(s string) int {
	start := len(b.text)
	b.Insert(start, s)
	return start
}

// Insert places s at pos. Tags strictly spanning pos grow to cover the new
// text; marks at pos move according to their gravity.
func (b *Buffer) Insert(pos int, s string) {
	if s == "" {
		return
	}
	pos = b.clamp(pos)
	ins := []rune(s)
	n := len(ins)

	text := make([]rune, 0, len(b.text)+n)
	text = append(text, b.text[:pos]...)
	text = append(text, ins...)
	text = append(text, b.text[pos:]...)
	b.text = text

	for name, ranges := range b.tags {
		for i := range ranges {
			r := &ranges[i]
			switch {
			case r.Start >= pos:
				r.Start += n
				r.End += n
			case r.End > pos:
				r.End += n
			}
		}
		b.tags[name] = ranges
	}

	for _, m := range b.marks {
		if m.pos > pos || (m.pos == pos && m.gravity == GravityRight) {
			m.pos += n
		}
	}
}

// Delete removes the runes in [start, end). Marks inside the range collapse
// to start; tags shrink and vanish when emptied.
func (b *Buffer) Delete(start, end int) {
	start, end = b.clampRange(start, end)
	if start == end {
		return
	}
	d := end - start
	b.text = append(b.text[:start], b.text[end:]...)

	adjust := func(x int) int {
		switch {
		case x <= start:
			return x
		case x <= end:
			return start
		default:
			return x - d
		}
	}

	for name, ranges := range b.tags {
		kept := ranges[:0]
		for _, r := range ranges {
			r.Start, r.End = adjust(r.Start), adjust(r.End)
			if r.End > r.Start {
				kept = append(kept, r)
			}
		}
		b.setTag(name, kept)
	}

	for _, m := range b.marks {
		m.pos = adjust(m.pos)
	}
}

// Replace swaps the runes in [start, end) for s.
func (b *Buffer) Replace(start, end int, s string) {
	start, end = b.clampRange(start, end)
	b.Delete(start, end)
	b.Insert(start, s)
}

// Reset empties the buffer and drops every tag and mark.
func (b *Buffer) Reset() {
	b.text = nil
	b.tags = make(map[string][]Range)
	b.marks = make(map[string]*mark)
}

// SetText replaces the whole buffer contents, dropping tags and marks.
func (b *Buffer) SetText(s string) {
	b.Reset()
	b.text = []rune(s)
}

// =============================================================================
// MARKS
// =============================================================================

// SetMark creates or moves a named mark.
func (b *Buffer) SetMark(name string, pos int, g Gravity) {
	b.marks[name] = &mark{pos: b.clamp(pos), gravity: g}
}

// Mark returns the position of a named mark.
func (b *Buffer) Mark(name string) (int, bool) {
	m, ok := b.marks[name]
	if !ok {
		return 0, false
	}
	return m.pos, true
}

// UnsetMark removes a named mark.
func (b *Buffer) UnsetMark(name string) {
	delete(b.marks, name)
}

// =============================================================================
// TAGS
// =============================================================================

// AddTag applies a tag over [start, end), merging with existing ranges.
func (b *Buffer) AddTag(name string, start, end int) {
	start, end = b.clampRange(start, end)
	if start == end {
		return
	}
	b.setTag(name, append(b.tags[name], Range{Start: start, End: end}))
}

// RemoveTag clears a tag from [start, end), splitting ranges as needed.
func (b *Buffer) RemoveTag(name string, start, end int) {
	start, end = b.clampRange(start, end)
	ranges, ok := b.tags[name]
	if !ok || start == end {
		return
	}
	var kept []Range
	for _, r := range ranges {
		if r.End <= start || r.Start >= end {
			kept = append(kept, r)
			continue
		}
		if r.Start < start {
			kept = append(kept, Range{Start: r.Start, End: start})
		}
		if r.End > end {
			kept = append(kept, Range{Start: end, End: r.End})
		}
	}
	b.setTag(name, kept)
}

// ClearTag removes a tag from the whole buffer.
func (b *Buffer) ClearTag(name string) {
	delete(b.tags, name)
}

// TagRanges returns a copy of the ranges carrying the tag, in order.
func (b *Buffer) TagRanges(name string) []Range {
	ranges := b.tags[name]
	out := make([]Range, len(ranges))
	copy(out, ranges)
	return out
}

// TagRangeAt returns the tag range containing pos.
func (b *Buffer) TagRangeAt(name string, pos int) (Range, bool) {
	ranges := b.tags[name]
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].End > pos })
	if i < len(ranges) && ranges[i].Contains(pos) {
		return ranges[i], true
	}
	return Range{}, false
}

// HasTag reports whether the rune at pos carries the tag.
func (b *Buffer) HasTag(name string, pos int) bool {
	_, ok := b.TagRangeAt(name, pos)
	return ok
}

// setTag stores ranges sorted and merged; touching ranges coalesce.
func (b *Buffer) setTag(name string, ranges []Range) {
	if len(ranges) == 0 {
		delete(b.tags, name)
		return
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	merged := []Range{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	b.tags[name] = merged
}

// =============================================================================
// SEARCH
// =============================================================================

// Search finds the first occurrence of query at or after from. With nocase
// set, runes are compared after simple lower-casing.
func (b *Buffer) Search(query string, from int, nocase bool) (Range, bool) {
	q := []rune(query)
	if len(q) == 0 {
		return Range{}, false
	}
	if nocase {
		q = lowerRunes(q)
	}
	from = b.clamp(from)
	for i := from; i+len(q) <= len(b.text); i++ {
		if matchAt(b.text, q, i, nocase) {
			return Range{Start: i, End: i + len(q)}, true
		}
	}
	return Range{}, false
}

// SearchAll returns every non-overlapping occurrence of query in [start, end).
func (b *Buffer) SearchAll(query string, start, end int, nocase bool) []Range {
	start, end = b.clampRange(start, end)
	q := []rune(query)
	if len(q) == 0 {
		return nil
	}
	if nocase {
		q = lowerRunes(q)
	}
	var out []Range
	for i := start; i+len(q) <= end; {
		if matchAt(b.text, q, i, nocase) {
			out = append(out, Range{Start: i, End: i + len(q)})
			i += len(q)
			continue
		}
		i++
	}
	return out
}

func matchAt(text, q []rune, at int, nocase bool) bool {
	for j, r := range q {
		c := text[at+j]
		if nocase {
			c = unicode.ToLower(c)
		}
		if c != r {
			return false
		}
	}
	return true
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// WordAt expands around pos while isWord holds and returns the run.
func (b *Buffer) WordAt(pos int, isWord func(rune) bool) Range {
	if pos < 0 || pos >= len(b.text) || !isWord(b.text[pos]) {
		return Range{Start: pos, End: pos}
	}
	start, end := pos, pos+1
	for start > 0 && isWord(b.text[start-1]) {
		start--
	}
	for end < len(b.text) && isWord(b.text[end]) {
		end++
	}
	return Range{Start: start, End: end}
}

// =============================================================================
// HELPERS
// =============================================================================

func (b *Buffer) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(b.text) {
		return len(b.text)
	}
	return pos
}

func (b *Buffer) clampRange(start, end int) (int, int) {
	start, end = b.clamp(start), b.clamp(end)
	if end < start {
		end = start
	}
	return start, end
}
