// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSession_AppendAndHistory(t *testing.T) {
	s := NewSession()
	assert.True(t, s.Empty())
	assert.ErrorIs(t, s.Append("   "), ErrEmptyUser)

	require.NoError(t, s.Append("one"))
	s.SetLastAssistant("first")
	require.NoError(t, s.Append("two"))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Turn{{User: "one", Assistant: "first"}}, s.History())
	assert.Equal(t, []string{"one", "two"}, s.Users())
	assert.Equal(t, "", s.LastAssistant())

	s.Clear()
	assert.Nil(t, s.History())
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_StreamedTurn(t *testing.T) {
	tr := New()
	require.NoError(t, tr.AppendTurn("Hello"))
	assert.True(t, tr.Open())

	tr.Extend("Hi")
	tr.Extend(" there")
	r, err := tr.Finalize(StreamSeparator)
	require.NoError(t, err)

	assert.Equal(t, "User: Hello\nAssistant: Hi there\n\n\n\n", tr.Text())
	assert.Equal(t, "Hi there", tr.SegmentText(0))
	assert.Equal(t, 23, r.Start)
	assert.Equal(t, 31, r.End)
	assert.False(t, tr.Open())
}

func TestTranscript_FinalizeAtExcludesTrailingText(t *testing.T) {
	tr := New()
	require.NoError(t, tr.AppendTurn("Hello"))
	tr.Extend("part")
	end := tr.Buffer().Len()
	tr.Extend("[Error] boom\n")

	r, err := tr.FinalizeAt(end, StreamSeparator)
	require.NoError(t, err)
	assert.Equal(t, "part", tr.SegmentText(0))
	assert.Equal(t, end, r.End)
	assert.True(t, strings.HasSuffix(tr.Text(), "[Error] boom\n\n\n\n\n"))

	require.NoError(t, tr.AppendTurn("again"))
	_, err = tr.FinalizeAt(0, StreamSeparator)
	assert.Error(t, err)
}

func TestTranscript_RejectsMisuse(t *testing.T) {
	tr := New()
	assert.ErrorIs(t, tr.AppendTurn(""), ErrEmptyUser)

	_, err := tr.Finalize(LoadSeparator)
	assert.ErrorIs(t, err, ErrNoOpenSegment)

	require.NoError(t, tr.AppendTurn("a"))
	assert.ErrorIs(t, tr.AppendTurn("b"), ErrSegmentOpen)

	_, err = tr.Rewrite(3, "x")
	assert.Error(t, err)
}

func TestTranscript_RewriteKeepsLaterSegments(t *testing.T) {
	tr := New()
	_, err := tr.Render([]Turn{
		{User: "q1", Assistant: "**bold** reply"},
		{User: "q2", Assistant: "second"},
		{User: "q3", Assistant: ""},
	})
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())

	r, err := tr.Rewrite(0, "bold reply")
	require.NoError(t, err)
	assert.Equal(t, "bold reply", tr.Buffer().Slice(r.Start, r.End))
	assert.Equal(t, "second", tr.SegmentText(1))
	assert.Equal(t, "", tr.SegmentText(2))
	require.NoError(t, tr.Check())

	want := "User: q1\nAssistant: bold reply\n\n" +
		"User: q2\nAssistant: second\n\n" +
		"User: q3\nAssistant: \n\n"
	assert.Equal(t, want, tr.Text())

	// Growing an empty segment works too.
	_, err = tr.Rewrite(2, "late")
	require.NoError(t, err)
	assert.Equal(t, "late", tr.SegmentText(2))
}

func TestTranscript_SegmentAtAndClear(t *testing.T) {
	tr := New()
	ranges, err := tr.Render([]Turn{{User: "u", Assistant: "abc"}})
	require.NoError(t, err)

	i, ok := tr.SegmentAt(ranges[0].Start + 1)
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = tr.SegmentAt(0)
	assert.False(t, ok)

	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "", tr.Text())
	assert.Empty(t, tr.Segments())
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestDecode_Valid(t *testing.T) {
	turns, err := Decode(strings.NewReader(`[{"user":"hi","assistant":"yo"},{"assistant":"","user":"x"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Turn{{"hi", "yo"}, {"x", ""}}, turns)

	turns, err = Decode(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `nope`},
		{"object", `{"user":"a","assistant":"b"}`},
		{"null", `null`},
		{"number element", `[1]`},
		{"null element", `[null]`},
		{"missing assistant", `[{"user":"a"}]`},
		{"extra field", `[{"user":"a","assistant":"b","ts":1}]`},
		{"non-string", `[{"user":"a","assistant":3}]`},
		{"null field", `[{"user":null,"assistant":"b"}]`},
		{"trailing", `[] []`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			var invalid *InvalidFileError
			if !errors.As(err, &invalid) {
				t.Fatalf("Decode(%s) error = %v, want InvalidFileError", tc.doc, err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	turns := []Turn{
		{User: "Größe <b>?", Assistant: "line1\nline2 & \"quoted\""},
		{User: "second", Assistant: ""},
	}

	require.NoError(t, SaveFile(path, turns))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, turns, got)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEncode_Indented(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Encode(&sb, nil))
	assert.Equal(t, "[]\n", sb.String())

	sb.Reset()
	require.NoError(t, Encode(&sb, []Turn{{User: "a", Assistant: "b"}}))
	assert.Contains(t, sb.String(), "\n  {\n    \"user\": \"a\",")
}
