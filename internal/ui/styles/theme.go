// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/notepad-tui/internal/highlight"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// FRAME STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderModel lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT STYLES
	// ==========================================================================

	Transcript     lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorChunk     lipgloss.Style

	UserWord      lipgloss.Style
	FindHighlight lipgloss.Style
	ClickedWord   lipgloss.Style
	FocusWord     lipgloss.Style

	// ==========================================================================
	// INPUT / STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputFocused   lipgloss.Style
	StatusBar      lipgloss.Style
	StatusReady    lipgloss.Style
	StatusBusy     lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// ==========================================================================
	// OVERLAY STYLES
	// ==========================================================================

	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	MenuItem     lipgloss.Style
	MenuSelected lipgloss.Style
	MenuKey      lipgloss.Style
	Muted        lipgloss.Style
	ErrorText    lipgloss.Style
	InfoText     lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; auto asks
// the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Transcript
	t.Transcript = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.ErrorChunk = lipgloss.NewStyle().
		Foreground(Rose)

	t.UserWord = lipgloss.NewStyle().
		Bold(true).
		Underline(true)

	t.FindHighlight = lipgloss.NewStyle().
		Background(FindBg).
		Foreground(TextInverse)

	t.ClickedWord = lipgloss.NewStyle().
		Background(ClickedBg).
		Foreground(TextInverse)

	t.FocusWord = lipgloss.NewStyle().
		Background(FocusBg).
		Foreground(TextInverse).
		Bold(true)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputFocused = t.InputContainer.
		BorderForeground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusReady = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusBusy = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Overlays
	t.Overlay = lipgloss.NewStyle().
		Background(SurfaceBright).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.OverlayTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.MenuItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.MenuSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(2)

	t.MenuKey = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.InfoText = lipgloss.NewStyle().
		Foreground(Cyan)
}

// TagStyle returns the style for a buffer tag. user_word is plain while the
// highlight style is off. ok is false for tags that are not drawn.
func (t *Theme) TagStyle(tag string, styleOn bool) (lipgloss.Style, bool) {
	switch tag {
	case transcript.TagUserWord:
		if !styleOn {
			return lipgloss.Style{}, false
		}
		return t.UserWord, true
	case transcript.TagFindHighlight:
		return t.FindHighlight, true
	case highlight.TagClicked:
		return t.ClickedWord, true
	case highlight.TagFocus:
		return t.FocusWord, true
	}
	return lipgloss.Style{}, false
}

// TagPriority orders overlapping tags; later entries are drawn on top.
var TagPriority = []string{
	transcript.TagUserWord,
	highlight.TagClicked,
	highlight.TagFocus,
	transcript.TagFindHighlight,
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
