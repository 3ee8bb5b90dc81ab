// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"
)

// =============================================================================
// REWRITE TESTS
// =============================================================================

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "nothing to do", "nothing to do"},
		{"bold and link", "Try **bold** and [site](http://x)", "Try bold and site: http://x"},
		{"table", "|A|B|\n|-|-|\n|1|2|\n|3|4|\n", "A\tB\n1\t2\n3\t4\n"},
		{"padded table", "see:\n| a | b |\n|:--|--:|\n| 1 | 2 |\ndone", "see:\na\tb\n1\t2\ndone"},
		{"header only", "|A|B|\n|---|---|\n", "A\tB\n"},
		{"nested link", "[[a](b)](c)", "a: b: c"},
		{"unclosed bold", "**open", "**open"},
		{"bold across lines untouched", "**a\nb**", "**a\nb**"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Clean(tc.in)
			if got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"Try **bold** and [site](http://x)",
		"***x***",
		"**x***y**",
		"[[a](b)](c)",
		"|A|B|\n|-|-|\n|1|2|\n",
		"mixed **[link](u)** in |bold|\n|-|\n|row|",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

// =============================================================================
// TABLE TESTS
// =============================================================================

func TestTableToTSV_Shape(t *testing.T) {
	md := "| h1 | h2 | h3 |\n|----|----|----|\n| a | b | c |\n| d | e | f |\n"
	got := TableToTSV(md)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), got)
	}
	for i, line := range lines {
		if n := len(strings.Split(line, "\t")); n != 3 {
			t.Errorf("line %d has %d cells, want 3", i, n)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("TSV output must end with a newline")
	}
}
