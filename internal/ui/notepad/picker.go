// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/notepad-tui/internal/ui/styles"
	"github.com/jeranaias/notepad-tui/internal/util"
)

// =============================================================================
// PICKER
// =============================================================================

// pickItem is one selectable line.
type pickItem struct {
	label string
	hint  string
	value string
}

// picker is a filterable list overlay used by the menu, the model list and
// Recent Chats.
type picker struct {
	title    string
	items    []pickItem
	filtered []pickItem
	selected int
	input    textinput.Model
	maxItems int
	empty    string
}

func newPicker(title string, items []pickItem, empty string) *picker {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.Prompt = "> "
	ti.CharLimit = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	ti.Focus()

	p := &picker{
		title:    title,
		items:    items,
		input:    ti,
		maxItems: 12,
		empty:    empty,
	}
	p.refilter()
	return p
}

// update handles a key. It returns the chosen item, or done=true with a nil
// item when the picker was dismissed.
func (p *picker) update(msg tea.KeyMsg) (chosen *pickItem, done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		return nil, true, nil
	case "enter":
		if p.selected < len(p.filtered) {
			it := p.filtered[p.selected]
			return &it, true, nil
		}
		return nil, false, nil
	case "up", "ctrl+p", "shift+tab":
		if n := len(p.filtered); n > 0 {
			p.selected = (p.selected - 1 + n) % n
		}
		return nil, false, nil
	case "down", "ctrl+n", "tab":
		if n := len(p.filtered); n > 0 {
			p.selected = (p.selected + 1) % n
		}
		return nil, false, nil
	}

	prev := p.input.Value()
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != prev {
		p.refilter()
		p.selected = 0
	}
	return nil, false, cmd
}

func (p *picker) refilter() {
	q := strings.TrimSpace(p.input.Value())
	if q == "" {
		p.filtered = p.items
		return
	}

	type scored struct {
		item  pickItem
		score int
	}
	var hits []scored
	for _, it := range p.items {
		if s, ok := fuzzyScore(q, it.label); ok {
			hits = append(hits, scored{it, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	p.filtered = make([]pickItem, len(hits))
	for i, h := range hits {
		p.filtered[i] = h.item
	}
}

func (p *picker) view(theme *styles.Theme, width int) string {
	boxWidth := 60
	if width > 0 && width < boxWidth+4 {
		boxWidth = width - 4
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	inner := boxWidth - 6
	p.input.Width = inner - 2

	var lines []string
	first := 0
	if p.selected >= p.maxItems {
		first = p.selected - p.maxItems + 1
	}
	for i := first; i < len(p.filtered) && i < first+p.maxItems; i++ {
		it := p.filtered[i]
		label := util.TruncateWidth(it.label, inner-lipgloss.Width(it.hint)-4)
		gap := inner - lipgloss.Width(label) - lipgloss.Width(it.hint) - 2
		if gap < 1 {
			gap = 1
		}
		line := label + strings.Repeat(" ", gap) + theme.MenuKey.Render(it.hint)
		if i == p.selected {
			lines = append(lines, theme.MenuSelected.Width(inner).Render(label+strings.Repeat(" ", gap)+it.hint))
		} else {
			lines = append(lines, theme.MenuItem.Render(line))
		}
	}
	if len(p.filtered) == 0 {
		lines = append(lines, theme.Muted.Italic(true).Render(p.empty))
	} else if more := len(p.filtered) - first - p.maxItems; more > 0 {
		lines = append(lines, theme.Muted.Render(fmt.Sprintf("  ... %d more", more)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.OverlayTitle.Render(p.title),
		p.input.View(),
		"",
		strings.Join(lines, "\n"),
		"",
		theme.Muted.Render("Up/Down navigate | Enter select | Esc close"),
	)
	return theme.Overlay.Width(boxWidth).Render(content)
}

// =============================================================================
// FUZZY MATCHING
// =============================================================================

// fuzzyScore reports whether every rune of query appears in target in
// order, ignoring case. Runs of adjacent hits and hits at word starts score
// higher; long targets are penalized slightly.
func fuzzyScore(query, target string) (int, bool) {
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(target))
	if len(q) > len(t) {
		return 0, false
	}

	score, qi, last := 0, 0, -2
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		s := 1
		if ti == last+1 {
			s += 5
		}
		if ti == 0 || !unicode.IsLetter(t[ti-1]) && !unicode.IsDigit(t[ti-1]) {
			s += 7
		}
		score += s
		last = ti
		qi++
	}
	if qi < len(q) {
		return 0, false
	}
	return score - len(t)/4, true
}
