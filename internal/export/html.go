// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/jeranaias/notepad-tui/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone page with embedded CSS. Replies are
// post-processed and shown as preformatted text, so tables keep their tabs.
type HTMLExporter struct {
	// Theme is "light" or "dark".
	Theme string
}

func (x HTMLExporter) Export(e *storage.Entry) ([]byte, error) {
	if err := check(e); err != nil {
		return nil, err
	}
	theme := x.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"generator\" content=\"notepad\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(e.Title))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s\">\n", theme)

	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(e.Title))
	fmt.Fprintf(&sb, "<p class=\"meta\">%s &middot; %d turns", html.EscapeString(e.Model), len(e.Turns))
	if !e.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, " &middot; %s", formatTimestamp(e.UpdatedAt))
	}
	sb.WriteString("</p>\n")

	for _, t := range Cleaned(e.Turns) {
		sb.WriteString("<div class=\"turn\">\n")
		fmt.Fprintf(&sb, "<div class=\"user\"><span>User</span><pre>%s</pre></div>\n", html.EscapeString(t.User))
		fmt.Fprintf(&sb, "<div class=\"assistant\"><span>Assistant</span><pre>%s</pre></div>\n", html.EscapeString(t.Assistant))
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func (HTMLExporter) FileExtension() string { return ".html" }

const css = `<style>
body { font-family: ui-monospace, Menlo, Consolas, monospace; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; }
body.light { background: #ffffff; color: #1f2937; }
body.dark { background: #1e1e2e; color: #cdd6f4; }
.meta { color: #6b7280; }
.turn { border-top: 1px solid #e5e5e5; padding: 1rem 0; }
.user span { color: #0891b2; font-weight: bold; }
.assistant span { color: #7c3aed; font-weight: bold; }
pre { white-space: pre-wrap; tab-size: 4; margin: 0.25rem 0 0.75rem; }
</style>
`
