// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes archived chats in formats meant for reading or
// re-loading elsewhere.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/notepad-tui/internal/markdown"
	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts an archived chat to one output format.
type Exporter interface {
	Export(e *storage.Entry) ([]byte, error)
	// FileExtension includes the dot, e.g. ".md".
	FileExtension() string
}

// ErrEmpty is returned for a chat without turns.
var ErrEmpty = errors.New("chat has no turns")

// Format names accepted by ByName.
const (
	FormatSession  = "session"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var exporters = map[string]func() Exporter{
	FormatSession:  func() Exporter { return SessionExporter{} },
	FormatText:     func() Exporter { return TextExporter{} },
	FormatMarkdown: func() Exporter { return MarkdownExporter{} },
	FormatHTML:     func() Exporter { return HTMLExporter{Theme: "light"} },
}

// ByName returns the exporter for format. "md", "txt" and "json" are
// accepted as aliases.
func ByName(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		format = FormatSession
	case "md":
		format = FormatMarkdown
	case "txt":
		format = FormatText
	}
	mk, ok := exporters[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (use %s)", format, strings.Join(Formats(), ", "))
	}
	return mk(), nil
}

// Formats lists the format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for n := range exporters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FileName suggests an output name for e, e.g. "chat_Hello_there_20250102_1504.md".
func FileName(e *storage.Entry, ex Exporter) string {
	stamp := e.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	return fmt.Sprintf("chat_%s_%s%s", sanitizeFilename(e.Title), stamp.Format("20060102_1504"), ex.FileExtension())
}

// =============================================================================
// SESSION / TEXT
// =============================================================================

// SessionExporter writes the session file that Load Chat reads. Replies are
// kept raw.
type SessionExporter struct{}

func (SessionExporter) Export(e *storage.Entry) ([]byte, error) {
	if err := check(e); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := transcript.Encode(&buf, e.Turns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (SessionExporter) FileExtension() string { return ".json" }

// TextExporter writes the transcript as the notepad shows it.
type TextExporter struct{}

func (TextExporter) Export(e *storage.Entry) ([]byte, error) {
	if err := check(e); err != nil {
		return nil, err
	}
	tr := transcript.New()
	if _, err := tr.Render(Cleaned(e.Turns)); err != nil {
		return nil, err
	}
	return []byte(tr.Text()), nil
}

func (TextExporter) FileExtension() string { return ".txt" }

// Cleaned returns turns with replies post-processed the way the transcript
// shows them.
func Cleaned(turns []transcript.Turn) []transcript.Turn {
	out := make([]transcript.Turn, len(turns))
	for i, t := range turns {
		out[i] = transcript.Turn{User: t.User, Assistant: markdown.Clean(t.Assistant)}
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func check(e *storage.Entry) error {
	if e == nil || len(e.Turns) == 0 {
		return ErrEmpty
	}
	return nil
}

// sanitizeFilename replaces characters that are invalid in file names on
// Windows or Unix and limits the length.
func sanitizeFilename(s string) string {
	const maxLen = 40
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "untitled"
	}
	return string(out)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
