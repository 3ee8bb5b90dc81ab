// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/notepad-tui/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// frontMatter is the YAML header of a Markdown export.
type frontMatter struct {
	Title     string    `yaml:"title"`
	Model     string    `yaml:"model"`
	Date      time.Time `yaml:"date,omitempty"`
	Updated   time.Time `yaml:"updated,omitempty"`
	Turns     int       `yaml:"turns"`
	Generator string    `yaml:"generator"`
}

// MarkdownExporter writes a chat as Markdown with YAML front matter.
// Replies are written raw, since they usually are Markdown already.
type MarkdownExporter struct{}

func (MarkdownExporter) Export(e *storage.Entry) ([]byte, error) {
	if err := check(e); err != nil {
		return nil, err
	}

	header, err := yaml.Marshal(frontMatter{
		Title:     e.Title,
		Model:     e.Model,
		Date:      e.CreatedAt.UTC(),
		Updated:   e.UpdatedAt.UTC(),
		Turns:     len(e.Turns),
		Generator: "notepad",
	})
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(e.Title))

	for i, t := range e.Turns {
		sb.WriteString("### User\n\n")
		sb.WriteString(quote(strings.TrimSpace(t.User)))
		sb.WriteString("\n\n### Assistant\n\n")
		sb.WriteString(strings.TrimSpace(t.Assistant))
		sb.WriteString("\n\n")
		if i < len(e.Turns)-1 {
			sb.WriteString("---\n\n")
		}
	}
	return []byte(sb.String()), nil
}

func (MarkdownExporter) FileExtension() string { return ".md" }

// quote renders user text as a block quote so it keeps its line breaks.
func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", `\#`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
