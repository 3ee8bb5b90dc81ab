// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/notepad-tui/internal/config"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the notepad. The first six are
// taken from the settings file; the rest are fixed.
type KeyMap struct {
	Send        key.Binding
	Find        key.Binding
	EditPrompt  key.Binding
	Stop        key.Binding
	Clear       key.Binding
	ToggleStyle key.Binding

	Menu     key.Binding
	Copy     key.Binding
	Wrap     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Close    key.Binding
	Quit     key.Binding
}

// NewKeyMap builds the key map from the settings bindings.
func NewKeyMap(s *config.Settings) KeyMap {
	bind := func(action, desc string) key.Binding {
		k := s.Binding(action)
		return key.NewBinding(key.WithKeys(k), key.WithHelp(k, desc))
	}

	return KeyMap{
		Send:        bind(config.ActionSend, "send"),
		Find:        bind(config.ActionFind, "find"),
		EditPrompt:  bind(config.ActionEditSystemPrompt, "system prompt"),
		Stop:        bind(config.ActionStopGeneration, "stop"),
		Clear:       bind(config.ActionClear, "clear"),
		ToggleStyle: bind(config.ActionToggleStyle, "highlight style"),

		Menu: key.NewBinding(
			key.WithKeys("f10", "ctrl+o"),
			key.WithHelp("C-o", "menu"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy reply"),
		),
		Wrap: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("C-w", "wrap"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("ctrl+home"),
			key.WithHelp("C-Home", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("ctrl+end"),
			key.WithHelp("C-End", "bottom"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("C-q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Stop, k.Find, k.Menu, k.Quit}
}

// FullHelp returns the bindings grouped for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Stop, k.Clear, k.EditPrompt},
		{k.Find, k.ToggleStyle, k.Wrap, k.Copy},
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Menu, k.Close, k.Quit},
	}
}
