// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/notepad-tui/internal/textbuf"
	"github.com/jeranaias/notepad-tui/internal/tokens"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// =============================================================================
// HIGHLIGHTER TESTS
// =============================================================================

func TestApply_DimensionOnly(t *testing.T) {
	tr := transcript.New()
	ranges, err := tr.Render([]transcript.Turn{
		{User: "Compute 2x5 shape", Assistant: "A 2x5 matrix has 10 cells"},
	})
	require.NoError(t, err)

	h := New(true)
	set := tokens.Extract([]string{"Compute 2x5 shape"})
	h.Apply(tr.Buffer(), ranges[0], set)

	tagged := tr.Buffer().TagRanges(transcript.TagUserWord)
	require.Len(t, tagged, 1)
	assert.Equal(t, "2x5", tr.Buffer().Slice(tagged[0].Start, tagged[0].End))
}

func TestApply_StaysInsideSegment(t *testing.T) {
	tr := transcript.New()
	ranges, err := tr.Render([]transcript.Turn{
		{User: "alpha", Assistant: "Alpha and alphabet, alpha."},
	})
	require.NoError(t, err)

	h := New(true)
	n := h.Apply(tr.Buffer(), ranges[0], tokens.Extract([]string{"alpha"}))
	assert.Equal(t, 2, n)

	for _, r := range tr.Buffer().TagRanges(transcript.TagUserWord) {
		assert.GreaterOrEqual(t, r.Start, ranges[0].Start)
		assert.LessOrEqual(t, r.End, ranges[0].End)
		assert.Equal(t, "alpha", Query(tr.Buffer().Slice(r.Start, r.End)))
	}
}

func TestApplyAll_ToggleKeepsTags(t *testing.T) {
	tr := transcript.New()
	turns := []transcript.Turn{
		{User: "red", Assistant: "red fish"},
		{User: "blue", Assistant: "blue and red"},
	}
	_, err := tr.Render(turns)
	require.NoError(t, err)

	h := New(true)
	set := tokens.Extract([]string{"red", "blue"})
	before := h.ApplyAll(tr, set)
	assert.Equal(t, 3, before)

	assert.False(t, h.Toggle())
	assert.False(t, h.StyleOn())
	after := h.ApplyAll(tr, set)
	assert.Equal(t, before, after)
	assert.True(t, h.Toggle())
}

func TestApply_EmptySetClears(t *testing.T) {
	buf := textbuf.New()
	buf.Append("word")
	buf.AddTag(transcript.TagUserWord, 0, 4)

	n := New(true).Apply(buf, textbuf.Range{Start: 0, End: 4}, tokens.Extract(nil))
	assert.Equal(t, 0, n)
	assert.Empty(t, buf.TagRanges(transcript.TagUserWord))
}

// =============================================================================
// CROSS-REFERENCE TESTS
// =============================================================================

func TestPanel_CyclesAndWraps(t *testing.T) {
	users := []string{"alpha beta", "alpha gamma", "delta"}
	p := NewPanel()

	first := p.Activate(users, "alpha")
	assert.True(t, p.Visible())
	assert.Equal(t, "1. alpha beta\n2. alpha gamma\n3. delta\n", p.Buffer().String())
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 0, first.Line)
	assert.Len(t, p.Buffer().TagRanges(TagClicked), 2)

	second := p.Activate(users, "Alpha ")
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, 1, second.Line)
	assert.Equal(t, []textbuf.Range{second.Focus}, p.Buffer().TagRanges(TagFocus))

	third := p.Activate(users, "alpha")
	assert.Equal(t, 0, third.Index)
	assert.Equal(t, first.Focus, third.Focus)
}

func TestPanel_NoHitsResetsCursor(t *testing.T) {
	p := NewPanel()
	p.Activate([]string{"alpha", "alpha"}, "alpha")
	assert.Equal(t, 1, p.Cursor("alpha"))

	res := p.Activate([]string{"beta"}, "alpha")
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, 0, p.Cursor("alpha"))
	assert.True(t, p.Visible())
	assert.Empty(t, p.Buffer().TagRanges(TagFocus))

	p.Hide()
	assert.False(t, p.Visible())
}

func TestPanel_StaleCursorWraps(t *testing.T) {
	p := NewPanel()
	users := []string{"x one", "x two", "x three"}
	p.Activate(users, "x")
	p.Activate(users, "x")
	assert.Equal(t, 2, p.Cursor("x"))

	res := p.Activate(users[:1], "x")
	assert.Equal(t, 0, res.Index)
}

func TestQueryAt(t *testing.T) {
	buf := textbuf.New()
	buf.Append("say Don't go")
	buf.AddTag(transcript.TagUserWord, 4, 9)

	q, ok := QueryAt(buf, 6)
	require.True(t, ok)
	assert.Equal(t, "don't", q)

	_, ok = QueryAt(buf, 1)
	assert.False(t, ok)
}

func TestPanel_NonASCIIQueries(t *testing.T) {
	p := NewPanel()
	users := []string{
		"İstanbul or Paris",
		"ΟΔΟΣ one",
		"οδος two",
		"Café au lait",
	}

	for _, tc := range []struct {
		word  string
		count int
	}{
		{"İstanbul", 1},
		{"ΟΔΟΣ", 2},
		{"Paris", 1},
		{"Café", 1},
		{"Café", 1},
	} {
		res := p.Activate(users, tc.word)
		assert.Equal(t, tc.count, res.Count, tc.word)
		assert.Equal(t, 0, res.Index, tc.word)
	}

	// Final sigma folds with Σ, so this continues the ΟΔΟΣ cycle.
	second := p.Activate(users, "\u03bf\u03b4\u03bf\u03c2")
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, 2, second.Line)
}

func TestQueryAt_NonASCII(t *testing.T) {
	buf := textbuf.New()
	buf.Append("to İstanbul")
	buf.AddTag(transcript.TagUserWord, 3, 11)

	q, ok := QueryAt(buf, 5)
	require.True(t, ok)
	assert.Equal(t, "İstanbul", q)

	res := NewPanel().Activate([]string{"fly to İSTANBUL"}, q)
	assert.Equal(t, 1, res.Count)
}
