// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown rewrites the markdown an assistant emits into plain
// notepad text: bold markers are dropped, links become "TEXT: URL" and
// pipe tables become tab-separated rows.
package markdown

import (
	"regexp"
	"strings"
)

var (
	boldPattern  = regexp.MustCompile(`\*\*(.*?)\*\*`)
	linkPattern  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	tablePattern = regexp.MustCompile(`\|[^\n]+\|\n\|[ \-:|]+\|\n(?:\|[^\n]+\|\n?)*`)
)

// maxPasses bounds the fixpoint loop in Clean.
const maxPasses = 16

// Clean applies the bold, link and table rewrites until the text stops
// changing, so Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	for i := 0; i < maxPasses; i++ {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func cleanOnce(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1: $2")
	return tablePattern.ReplaceAllStringFunc(s, TableToTSV)
}

// TableToTSV converts one markdown pipe table (header row, separator row,
// body rows) into tab-separated lines. Each output line ends in a newline.
func TableToTSV(md string) string {
	lines := strings.Split(strings.TrimSpace(md), "\n")
	if len(lines) == 0 {
		return md
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(splitRow(lines[0]), "\t"))
	sb.WriteByte('\n')
	if len(lines) > 2 {
		for _, line := range lines[2:] {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "|") {
				continue
			}
			sb.WriteString(strings.Join(splitRow(line), "\t"))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// splitRow splits "| a | b |" into ["a", "b"].
func splitRow(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}
