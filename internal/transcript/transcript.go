// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/notepad-tui/internal/textbuf"
)

// Tag names used on the transcript buffer.
const (
	TagUserWord      = "user_word"
	TagFindHighlight = "find_highlight"
)

// Separators appended after each reply. A streamed reply is followed by two
// blank lines; replayed turns by one.
const (
	StreamSeparator = "\n\n\n\n"
	LoadSeparator   = "\n\n"
)

var (
	// ErrSegmentOpen is returned when a turn starts while a reply is still open.
	ErrSegmentOpen = errors.New("an assistant reply is still streaming")
	// ErrNoOpenSegment is returned when finalizing without an open reply.
	ErrNoOpenSegment = errors.New("no assistant reply to finalize")
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the rendered view of a session: a text buffer plus the range
// of every finalized assistant reply. Ranges are held as buffer marks so
// they follow in-place rewrites.
type Transcript struct {
	buf      *textbuf.Buffer
	segments int
	open     bool
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{buf: textbuf.New()}
}

// Buffer exposes the underlying text buffer for tagging and rendering.
func (t *Transcript) Buffer() *textbuf.Buffer {
	return t.buf
}

// Text returns the whole transcript.
func (t *Transcript) Text() string {
	return t.buf.String()
}

// Open reports whether an assistant reply is currently streaming.
func (t *Transcript) Open() bool {
	return t.open
}

// AppendTurn renders the header of a new turn and opens its reply.
func (t *Transcript) AppendTurn(user string) error {
	if strings.TrimSpace(user) == "" {
		return ErrEmptyUser
	}
	if t.open {
		return ErrSegmentOpen
	}
	t.buf.Append("User: " + user + "\nAssistant: ")
	t.buf.SetMark(startMark(t.segments), t.buf.Len(), textbuf.GravityLeft)
	t.open = true
	return nil
}

// Extend appends streamed text to the end of the transcript.
func (t *Transcript) Extend(delta string) {
	t.buf.Append(delta)
}

// Finalize closes the open reply at the current end of the buffer, records it
// as a segment and appends sep. It returns the segment range.
func (t *Transcript) Finalize(sep string) (textbuf.Range, error) {
	return t.FinalizeAt(t.buf.Len(), sep)
}

// FinalizeAt is Finalize with the reply ending at end instead of the buffer
// end. Text between end and the buffer end stays visible but belongs to no
// segment.
func (t *Transcript) FinalizeAt(end int, sep string) (textbuf.Range, error) {
	if !t.open {
		return textbuf.Range{}, ErrNoOpenSegment
	}
	i := t.segments
	start, _ := t.buf.Mark(startMark(i))
	if end < start || end > t.buf.Len() {
		return textbuf.Range{}, fmt.Errorf("reply end %d outside [%d, %d]", end, start, t.buf.Len())
	}
	t.buf.SetMark(endMark(i), end, textbuf.GravityLeft)
	t.segments++
	t.open = false
	t.buf.Append(sep)
	r, _ := t.Segment(i)
	return r, nil
}

// Render replays turns into the transcript, one segment per turn. It returns
// the new segment ranges.
func (t *Transcript) Render(turns []Turn) ([]textbuf.Range, error) {
	ranges := make([]textbuf.Range, 0, len(turns))
	for _, turn := range turns {
		if err := t.AppendTurn(turn.User); err != nil {
			return ranges, err
		}
		t.Extend(turn.Assistant)
		r, err := t.Finalize(LoadSeparator)
		if err != nil {
			return ranges, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Clear empties the buffer and forgets every segment.
func (t *Transcript) Clear() {
	t.buf.Reset()
	t.segments = 0
	t.open = false
}

// =============================================================================
// SEGMENTS
// =============================================================================

// Len returns the number of finalized segments.
func (t *Transcript) Len() int {
	return t.segments
}

// Segment returns the current range of the i-th finalized reply.
func (t *Transcript) Segment(i int) (textbuf.Range, bool) {
	if i < 0 || i >= t.segments {
		return textbuf.Range{}, false
	}
	start, ok := t.buf.Mark(startMark(i))
	if !ok {
		return textbuf.Range{}, false
	}
	end, ok := t.buf.Mark(endMark(i))
	if !ok {
		return textbuf.Range{}, false
	}
	return textbuf.Range{Start: start, End: end}, true
}

// Segments returns every finalized range in order.
func (t *Transcript) Segments() []textbuf.Range {
	out := make([]textbuf.Range, 0, t.segments)
	for i := 0; i < t.segments; i++ {
		if r, ok := t.Segment(i); ok {
			out = append(out, r)
		}
	}
	return out
}

// SegmentText returns the text of the i-th reply.
func (t *Transcript) SegmentText(i int) string {
	r, ok := t.Segment(i)
	if !ok {
		return ""
	}
	return t.buf.Slice(r.Start, r.End)
}

// SegmentAt returns the index of the segment containing pos.
func (t *Transcript) SegmentAt(pos int) (int, bool) {
	for i := 0; i < t.segments; i++ {
		r, ok := t.Segment(i)
		if ok && r.Contains(pos) {
			return i, true
		}
	}
	return 0, false
}

// Rewrite replaces the text of the i-th reply and re-anchors its end so the
// range covers exactly the new text.
func (t *Transcript) Rewrite(i int, text string) (textbuf.Range, error) {
	r, ok := t.Segment(i)
	if !ok {
		return textbuf.Range{}, fmt.Errorf("segment %d out of range (have %d)", i, t.segments)
	}
	t.buf.Replace(r.Start, r.End, text)
	t.buf.SetMark(startMark(i), r.Start, textbuf.GravityLeft)
	t.buf.SetMark(endMark(i), r.Start+len([]rune(text)), textbuf.GravityLeft)
	nr, ok := t.Segment(i)
	if !ok {
		return textbuf.Range{}, fmt.Errorf("segment %d lost its marks", i)
	}
	return nr, nil
}

// Check verifies that segments are ordered and do not overlap.
func (t *Transcript) Check() error {
	prev := 0
	for i := 0; i < t.segments; i++ {
		r, ok := t.Segment(i)
		if !ok {
			return fmt.Errorf("segment %d lost its marks", i)
		}
		if r.Start < prev || r.End < r.Start || r.End > t.buf.Len() {
			return fmt.Errorf("segment %d has invalid range [%d, %d)", i, r.Start, r.End)
		}
		prev = r.End
	}
	return nil
}

func startMark(i int) string { return fmt.Sprintf("seg.%d.start", i) }
func endMark(i int) string   { return fmt.Sprintf("seg.%d.end", i) }
