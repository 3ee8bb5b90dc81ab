// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/notepad-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the window.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	switch m.mode {
	case modeMenu, modeModels, modeRecent:
		return m.place(m.picker.view(m.theme, m.width))
	case modePath:
		return m.place(m.renderPathDialog())
	case modePrompt:
		return m.place(m.renderEditor())
	case modeDialog:
		return m.place(m.renderDialog())
	case modeAbout:
		return m.place(m.theme.Overlay.Render(m.about.View()))
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if m.ctl.Panel().Visible() {
		parts = append(parts, m.renderPanel())
	}
	if m.mode == modeFind {
		parts = append(parts, m.renderFindBar())
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// place centers an overlay box on the screen.
func (m Model) place(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// FRAME
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("notepad")
	model := m.theme.HeaderModel.Render(m.ctl.Model())

	var flags []string
	if !m.ctl.StyleOn() {
		flags = append(flags, "plain")
	}
	if !m.wrap {
		flags = append(flags, "nowrap")
	}
	right := m.theme.Muted.Render(strings.Join(flags, " "))

	left := title + "  " + model
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderPanel() string {
	res := m.ctl.Panel().Last()
	var title string
	switch {
	case res.Count == 0:
		title = fmt.Sprintf("Prompts: %q not found", res.Query)
	default:
		title = fmt.Sprintf("Prompts: %q %d of %d", res.Query, res.Index+1, res.Count)
	}
	hint := m.theme.Muted.Render("  click again for the next, Esc closes")
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.OverlayTitle.UnsetMarginBottom().Render(title)+hint,
		m.panel.View(),
	)
}

func (m Model) renderFindBar() string {
	status := ""
	if m.findStatus != "" {
		status = "  " + m.theme.Muted.Render(m.findStatus)
	}
	return m.findInput.View() + status
}

func (m Model) renderInput() string {
	style := m.theme.InputContainer
	if m.mode == modeNormal {
		style = m.theme.InputFocused
	}
	return style.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	if m.ctl.Streaming() {
		left = m.spinner.View() + " " + m.theme.StatusBusy.Render("Generating")
	} else {
		left = m.theme.StatusReady.Render("Ready")
	}
	left += m.theme.Muted.Render(fmt.Sprintf("  %d turns", m.ctl.Session().Len()))

	if m.status != "" {
		st := m.theme.InfoText
		if m.statusErr {
			st = m.theme.ErrorText
		}
		left += "  " + st.Render(util.TruncateWidth(m.status, m.width/2))
	}

	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		right = ""
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderPathDialog() string {
	title := "Save Chat"
	if m.pathAction == actLoad {
		title = "Load Chat"
	}
	return m.theme.Overlay.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.OverlayTitle.Render(title),
		m.pathInput.View(),
		"",
		m.theme.Muted.Render("Enter confirm | Esc cancel"),
	))
}

func (m Model) renderEditor() string {
	return m.theme.Overlay.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.OverlayTitle.Render("System Prompt"),
		m.editor.View(),
		"",
		m.theme.Muted.Render(m.keys.Send.Help().Key+" save | Esc cancel"),
	))
}

func (m Model) renderDialog() string {
	text := m.theme.MenuItem.UnsetPaddingLeft().Render(m.dialogText)
	if m.dialogErr {
		text = m.theme.ErrorText.Render(m.dialogText)
	}
	width := minInt(maxInt(lipgloss.Width(m.dialogText), 30), m.width-8)
	return m.theme.Overlay.Width(width + 4).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.OverlayTitle.Render(m.dialogTitle),
		text,
		"",
		m.theme.Muted.Render("Enter OK"),
	))
}
