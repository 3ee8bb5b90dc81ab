// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package highlight tags user tokens inside assistant replies and drives the
// cross-reference panel that walks through every prompt mentioning a token.
package highlight

import (
	"sync/atomic"

	"github.com/jeranaias/notepad-tui/internal/textbuf"
	"github.com/jeranaias/notepad-tui/internal/tokens"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// =============================================================================
// HIGHLIGHTER
// =============================================================================

// Highlighter applies the user_word tag. The style flag is global: it only
// changes how the tag is drawn, never which ranges carry it.
type Highlighter struct {
	styleOn atomic.Bool
}

// New creates a highlighter with the given style flag.
func New(styleOn bool) *Highlighter {
	h := &Highlighter{}
	h.styleOn.Store(styleOn)
	return h
}

// StyleOn reports whether user_word renders bold and underlined.
func (h *Highlighter) StyleOn() bool {
	return h.styleOn.Load()
}

// Toggle flips the style flag and returns the new value.
func (h *Highlighter) Toggle() bool {
	for {
		old := h.styleOn.Load()
		if h.styleOn.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Apply clears user_word inside r and tags every token hit there. It returns
// the number of hits.
func (h *Highlighter) Apply(buf *textbuf.Buffer, r textbuf.Range, set *tokens.Set) int {
	buf.RemoveTag(transcript.TagUserWord, r.Start, r.End)
	if set.Len() == 0 || r.Len() <= 0 {
		return 0
	}
	spans := set.Locate(buf.Slice(r.Start, r.End))
	for _, sp := range spans {
		buf.AddTag(transcript.TagUserWord, r.Start+sp.Start, r.Start+sp.End)
	}
	return len(spans)
}

// ApplyAll re-tags every finalized segment of the transcript.
func (h *Highlighter) ApplyAll(tr *transcript.Transcript, set *tokens.Set) int {
	buf := tr.Buffer()
	buf.ClearTag(transcript.TagUserWord)
	n := 0
	for _, r := range tr.Segments() {
		n += h.Apply(buf, r, set)
	}
	return n
}
