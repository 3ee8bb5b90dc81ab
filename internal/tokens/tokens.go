// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tokens extracts the interesting tokens of user prompts (words,
// numbers and dimension expressions such as 2x5) and locates them in
// assistant text.
package tokens

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// TOKEN TYPES
// =============================================================================

// Kind classifies a token by shape.
type Kind int

const (
	// KindWord is a run of letters and apostrophes.
	KindWord Kind = iota
	// KindNumber is a decimal integer with an optional fraction.
	KindNumber
	// KindDimension is two or more integers joined by x, e.g. 1920x1080.
	KindDimension
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindNumber:
		return "number"
	case KindDimension:
		return "dimension"
	default:
		return "unknown"
	}
}

// Token is a single extracted token with its original casing.
type Token struct {
	Text string
	Kind Kind
}

// Span is a half-open rune range inside a searched text.
type Span struct {
	Start int
	End   int
}

var (
	wordPattern      = regexp.MustCompile(`[\p{L}']+`)
	numberPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	dimensionPattern = regexp.MustCompile(`(?i)\d+(?:x\d+)+`)
)

// =============================================================================
// SET
// =============================================================================

// Set is a deduplicated collection of tokens. Duplicates are detected
// case-insensitively; the first spelling seen is kept.
type Set struct {
	tokens []Token
	seen   map[string]struct{}
}

// Extract builds the token set from user prompts. Only user text may be
// passed here; assistant replies never contribute tokens.
func Extract(users []string) *Set {
	s := &Set{seen: make(map[string]struct{})}
	for _, u := range users {
		for _, w := range wordPattern.FindAllString(u, -1) {
			if strings.Trim(w, "'") == "" {
				continue
			}
			s.add(Token{Text: w, Kind: KindWord})
		}
		for _, d := range dimensionPattern.FindAllString(u, -1) {
			s.add(Token{Text: d, Kind: KindDimension})
		}
		for _, n := range numberPattern.FindAllString(u, -1) {
			s.add(Token{Text: n, Kind: KindNumber})
		}
	}
	return s
}

func (s *Set) add(t Token) {
	key := strings.ToLower(t.Text)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.tokens = append(s.tokens, t)
}

// Len returns the number of distinct tokens.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tokens)
}

// Tokens returns the tokens in extraction order.
func (s *Set) Tokens() []Token {
	if s == nil {
		return nil
	}
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Contains reports whether text is in the set, ignoring case.
func (s *Set) Contains(text string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[strings.ToLower(text)]
	return ok
}

// Locate returns every hit of every token in text as rune spans, sorted by
// start. Word tokens must sit on word boundaries; numbers and dimensions
// match anywhere. Hits may overlap.
func (s *Set) Locate(text string) []Span {
	if s.Len() == 0 || text == "" {
		return nil
	}
	hay := []rune(text)
	var spans []Span
	for _, t := range s.tokens {
		needle := []rune(t.Text)
		for _, sp := range Find(hay, needle) {
			if t.Kind == KindWord && !OnBoundary(hay, sp) {
				continue
			}
			spans = append(spans, sp)
		}
	}
	sortSpans(spans)
	return spans
}

// =============================================================================
// MATCHING
// =============================================================================

// FoldRune maps r to the smallest rune of its simple case-folding orbit, so
// runes that differ only by case (including σ/ς/Σ) fold to the same value.
func FoldRune(r rune) rune {
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	return lo
}

// Lower lower-cases s one rune at a time, keeping the rune count. A rune
// whose lower case leaves its folding orbit (İ) is kept as is.
func Lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if l := unicode.ToLower(r); FoldRune(l) == FoldRune(r) {
			out[i] = l
		}
	}
	return string(out)
}

// Find returns all case-insensitive occurrences of needle in hay. Matches may
// overlap.
func Find(hay, needle []rune) []Span {
	if len(needle) == 0 || len(needle) > len(hay) {
		return nil
	}
	folded := make([]rune, len(needle))
	for i, r := range needle {
		folded[i] = FoldRune(r)
	}
	var out []Span
outer:
	for i := 0; i+len(folded) <= len(hay); i++ {
		for j, r := range folded {
			if FoldRune(hay[i+j]) != r {
				continue outer
			}
		}
		out = append(out, Span{Start: i, End: i + len(folded)})
	}
	return out
}

// FindWord returns the case-insensitive occurrences of needle that sit on
// word boundaries, without overlaps, in document order.
func FindWord(hay, needle []rune) []Span {
	var out []Span
	next := 0
	for _, sp := range Find(hay, needle) {
		if sp.Start < next || !OnBoundary(hay, sp) {
			continue
		}
		out = append(out, sp)
		next = sp.End
	}
	return out
}

// OnBoundary reports whether the span is not glued to word characters on
// either side.
func OnBoundary(hay []rune, sp Span) bool {
	if sp.Start > 0 && IsWordRune(hay[sp.Start-1]) {
		return false
	}
	if sp.End < len(hay) && IsWordRune(hay[sp.End]) {
		return false
	}
	return true
}

// IsWordRune reports whether r counts as a word character for boundary
// checks: any letter, digit or underscore.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func sortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}
