// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package textbuf

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEXT EDIT TESTS
// =============================================================================

func TestBuffer_AppendInsertDelete(t *testing.T) {
	b := New()
	start := b.Append("héllo")
	assert.Equal(t, 0, start)
	assert.Equal(t, 5, b.Len())

	b.Append(" world")
	b.Insert(5, ",")
	assert.Equal(t, "héllo, world", b.String())

	b.Delete(5, 6)
	assert.Equal(t, "héllo world", b.String())
	assert.Equal(t, "llo", b.Slice(2, 5))

	b.Replace(0, 5, "bye")
	assert.Equal(t, "bye world", b.String())
}

func TestBuffer_ClampsOutOfRange(t *testing.T) {
	b := New()
	b.Append("abc")
	b.Insert(99, "d")
	b.Delete(-5, 1)
	assert.Equal(t, "bcd", b.String())
	assert.Equal(t, "", b.Slice(3, 1))
	assert.Equal(t, rune(0), b.RuneAt(10))
}

// =============================================================================
// MARK TESTS
// =============================================================================

func TestBuffer_MarkGravity(t *testing.T) {
	b := New()
	b.Append("abc")
	b.SetMark("left", 3, GravityLeft)
	b.SetMark("right", 3, GravityRight)

	b.Append("def")

	left, ok := b.Mark("left")
	require.True(t, ok)
	right, _ := b.Mark("right")
	assert.Equal(t, 3, left)
	assert.Equal(t, 6, right)
}

func TestBuffer_MarksFollowEdits(t *testing.T) {
	b := New()
	b.Append("0123456789")
	b.SetMark("m", 7, GravityLeft)

	b.Insert(2, "xx")
	pos, _ := b.Mark("m")
	assert.Equal(t, 9, pos)

	b.Delete(0, 4)
	pos, _ = b.Mark("m")
	assert.Equal(t, 5, pos)

	// Mark inside a deleted range collapses to its start.
	b.Delete(3, 8)
	pos, _ = b.Mark("m")
	assert.Equal(t, 3, pos)

	b.UnsetMark("m")
	_, ok := b.Mark("m")
	assert.False(t, ok)
}

// =============================================================================
// TAG TESTS
// =============================================================================

func TestBuffer_TagsMergeAndSplit(t *testing.T) {
	b := New()
	b.Append("abcdefghij")

	b.AddTag("t", 1, 3)
	b.AddTag("t", 3, 5)
	b.AddTag("t", 7, 9)
	assert.Equal(t, []Range{{1, 5}, {7, 9}}, b.TagRanges("t"))

	b.RemoveTag("t", 2, 4)
	assert.Equal(t, []Range{{1, 2}, {4, 5}, {7, 9}}, b.TagRanges("t"))

	assert.True(t, b.HasTag("t", 8))
	assert.False(t, b.HasTag("t", 9))

	r, ok := b.TagRangeAt("t", 4)
	require.True(t, ok)
	assert.Equal(t, Range{4, 5}, r)

	b.ClearTag("t")
	assert.Empty(t, b.TagRanges("t"))
}

func TestBuffer_TagsShiftWithText(t *testing.T) {
	b := New()
	b.Append("hello world")
	b.AddTag("w", 6, 11)

	b.Insert(0, ">> ")
	assert.Equal(t, []Range{{9, 14}}, b.TagRanges("w"))
	assert.Equal(t, "world", b.Slice(9, 14))

	// Appending at the end of a tag does not extend it.
	b.Append("!")
	assert.Equal(t, []Range{{9, 14}}, b.TagRanges("w"))

	b.Delete(10, 12)
	assert.Equal(t, []Range{{9, 12}}, b.TagRanges("w"))

	b.Delete(8, 13)
	assert.Empty(t, b.TagRanges("w"))
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestBuffer_Search(t *testing.T) {
	b := New()
	b.Append("Alpha beta ALPHA")

	r, ok := b.Search("alpha", 0, true)
	require.True(t, ok)
	assert.Equal(t, Range{0, 5}, r)

	r, ok = b.Search("alpha", r.End, true)
	require.True(t, ok)
	assert.Equal(t, Range{11, 16}, r)

	_, ok = b.Search("alpha", 12, true)
	assert.False(t, ok)

	_, ok = b.Search("alpha", 0, false)
	assert.False(t, ok)

	all := b.SearchAll("a", 0, b.Len(), true)
	assert.Len(t, all, 5)
}

func TestBuffer_WordAt(t *testing.T) {
	b := New()
	b.Append("say don't stop")
	isWord := func(r rune) bool { return unicode.IsLetter(r) || r == '\'' }

	assert.Equal(t, Range{4, 9}, b.WordAt(6, isWord))
	assert.Equal(t, Range{3, 3}, b.WordAt(3, isWord))
}

// =============================================================================
// INDEX TESTS
// =============================================================================

func TestBuffer_IndexRoundTrip(t *testing.T) {
	b := New()
	b.Append("first\nsecond line\n\nlast")

	tests := []struct {
		pos   int
		index string
	}{
		{0, "1.0"},
		{5, "1.5"},
		{6, "2.0"},
		{12, "2.6"},
		{17, "2.11"},
		{18, "3.0"},
		{19, "4.0"},
		{23, "4.4"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.index, b.Index(tc.pos), "Index(%d)", tc.pos)
		pos, err := b.Pos(tc.index)
		require.NoError(t, err)
		assert.Equal(t, tc.pos, pos, "Pos(%s)", tc.index)
	}

	pos, err := b.Pos("1.99")
	require.NoError(t, err)
	assert.Equal(t, 5, pos)

	pos, err = b.Pos("40.0")
	require.NoError(t, err)
	assert.Equal(t, b.Len(), pos)

	_, err = b.Pos("nope")
	assert.Error(t, err)

	assert.Equal(t, 6, b.LineStart(12))
}
