// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

func sampleEntry() *storage.Entry {
	at := time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC)
	return &storage.Entry{
		ID:        "0123456789abcdef",
		Title:     "Tables: <b> & co",
		Model:     "gemma3:1b",
		CreatedAt: at,
		UpdatedAt: at,
		Turns: []transcript.Turn{
			{User: "make a table\nplease", Assistant: "**Sure**\n| A | B |\n|---|---|\n| 1 | 2 |\n"},
			{User: "thanks", Assistant: "You're welcome"},
		},
	}
}

func TestByName(t *testing.T) {
	tests := map[string]string{
		"":         ".json",
		"json":     ".json",
		"session":  ".json",
		"md":       ".md",
		"Markdown": ".md",
		"txt":      ".txt",
		"text":     ".txt",
		"html":     ".html",
	}
	for name, ext := range tests {
		ex, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, ext, ex.FileExtension(), name)
	}

	_, err := ByName("pdf")
	assert.ErrorContains(t, err, "html, markdown, session, text")
}

func TestEmptyEntry(t *testing.T) {
	for _, name := range Formats() {
		ex, err := ByName(name)
		require.NoError(t, err)
		_, err = ex.Export(&storage.Entry{})
		assert.ErrorIs(t, err, ErrEmpty, name)
		_, err = ex.Export(nil)
		assert.ErrorIs(t, err, ErrEmpty, name)
	}
}

func TestSessionExport_RoundTrips(t *testing.T) {
	e := sampleEntry()
	data, err := SessionExporter{}.Export(e)
	require.NoError(t, err)

	turns, err := transcript.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, e.Turns, turns)
}

func TestTextExport_MatchesTranscript(t *testing.T) {
	data, err := TextExporter{}.Export(sampleEntry())
	require.NoError(t, err)

	want := "User: make a table\nplease\nAssistant: Sure\nA\tB\n1\t2\n\n\n" +
		"User: thanks\nAssistant: You're welcome\n\n"
	assert.Equal(t, want, string(data))
}

func TestMarkdownExport(t *testing.T) {
	out, err := MarkdownExporter{}.Export(sampleEntry())
	require.NoError(t, err)
	s := string(out)

	require.True(t, strings.HasPrefix(s, "---\n"))
	end := strings.Index(s[4:], "---\n")
	require.Greater(t, end, 0)
	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(s[4:4+end]), &fm))
	assert.Equal(t, "Tables: <b> & co", fm.Title)
	assert.Equal(t, "gemma3:1b", fm.Model)
	assert.Equal(t, 2, fm.Turns)
	assert.True(t, fm.Updated.Equal(sampleEntry().UpdatedAt))

	assert.Contains(t, s, "# Tables: <b> & co\n")
	assert.Contains(t, s, "> make a table\n> please")
	assert.Contains(t, s, "**Sure**")
	assert.Equal(t, 1, strings.Count(s, "\n---\n\n### User"))
}

func TestHTMLExport_Escapes(t *testing.T) {
	e := sampleEntry()
	e.Turns[1].User = "<script>alert('x')</script>"

	out, err := HTMLExporter{Theme: "dark"}.Export(e)
	require.NoError(t, err)
	s := string(out)

	assert.NotContains(t, s, "<script>")
	assert.Contains(t, s, "&lt;script&gt;")
	assert.Contains(t, s, "<title>Tables: &lt;b&gt; &amp; co</title>")
	assert.Contains(t, s, `<body class="dark">`)
	assert.Contains(t, s, "A\tB\n1\t2\n")
}

func TestFileName(t *testing.T) {
	e := sampleEntry()
	assert.Equal(t, "chat_Tables-_-b-_&_co_20250102_1504.md", FileName(e, MarkdownExporter{}))

	e.Title = "   "
	assert.True(t, strings.HasPrefix(FileName(e, TextExporter{}), "chat_untitled_"))
}
