// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package find implements the incremental, case-insensitive Find over the
// transcript.
package find

import (
	"errors"

	"github.com/jeranaias/notepad-tui/internal/textbuf"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// ErrNotFound is returned when no further match exists. The search position
// has already been reset to the start of the buffer.
var ErrNotFound = errors.New("text not found")

// Match is a single find hit.
type Match struct {
	Range textbuf.Range
	// Index is the "line.column" position of the hit.
	Index string
}

// Finder keeps the search position between Next calls. At most one
// find_highlight range exists at a time.
type Finder struct {
	buf *textbuf.Buffer
	pos int
}

// New creates a finder seeded at the start of buf.
func New(buf *textbuf.Buffer) *Finder {
	return &Finder{buf: buf}
}

// Next searches forward from the last hit and moves the highlight to the
// result. A miss leaves the previous highlight in place.
func (f *Finder) Next(query string) (Match, error) {
	if query == "" {
		return Match{}, ErrNotFound
	}
	r, ok := f.buf.Search(query, f.pos, true)
	if !ok {
		f.pos = 0
		return Match{}, ErrNotFound
	}
	f.buf.ClearTag(transcript.TagFindHighlight)
	f.buf.AddTag(transcript.TagFindHighlight, r.Start, r.End)
	f.pos = r.End
	return Match{Range: r, Index: f.buf.Index(r.Start)}, nil
}

// Position returns where the next search starts as a "line.column" index.
func (f *Finder) Position() string {
	return f.buf.Index(f.pos)
}

// Reset moves the search back to the start.
func (f *Finder) Reset() {
	f.pos = 0
}

// Close removes the highlight and resets the position.
func (f *Finder) Close() {
	f.buf.ClearTag(transcript.TagFindHighlight)
	f.pos = 0
}
