// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/notepad-tui/internal/storage"
)

// =============================================================================
// MENU
// =============================================================================

type menuAction int

const (
	actSelectModel menuAction = iota
	actSave
	actLoad
	actRecent
	actEditPrompt
	actSend
	actStop
	actClear
	actFind
	actToggleStyle
	actToggleWrap
	actCopy
	actAbout
	actExit
)

// menuItems returns the menu in display order, with current accelerators.
func (m *Model) menuItems() []pickItem {
	k := m.keys
	item := func(label, hint string, a menuAction) pickItem {
		return pickItem{label: label, hint: hint, value: strconv.Itoa(int(a))}
	}
	return []pickItem{
		item("Select Model", m.ctl.Model(), actSelectModel),
		item("Save Chat", "", actSave),
		item("Load Chat", "", actLoad),
		item("Recent Chats", "", actRecent),
		item("Edit System Prompt", k.EditPrompt.Help().Key, actEditPrompt),
		item("Send", k.Send.Help().Key, actSend),
		item("Stop", k.Stop.Help().Key, actStop),
		item("Clear", k.Clear.Help().Key, actClear),
		item("Find", k.Find.Help().Key, actFind),
		item("Toggle Highlight Style", k.ToggleStyle.Help().Key, actToggleStyle),
		item("Toggle Wrap", k.Wrap.Help().Key, actToggleWrap),
		item("Copy Last Reply", k.Copy.Help().Key, actCopy),
		item("About / License", "", actAbout),
		item("Exit", "ctrl+q", actExit),
	}
}

func (m *Model) openMenu() {
	m.mode = modeMenu
	m.input.Blur()
	m.picker = newPicker("Menu", m.menuItems(), "No matching entries")
}

func (m *Model) openModels(models []string) {
	items := make([]pickItem, len(models))
	for i, name := range models {
		hint := ""
		if name == m.ctl.Model() {
			hint = "current"
		}
		items[i] = pickItem{label: name, hint: hint, value: name}
	}
	m.mode = modeModels
	m.input.Blur()
	m.picker = newPicker("Select Model", items, "No models installed; run `ollama pull` first")
}

func (m *Model) openRecent(entries []storage.EntryMeta) {
	items := make([]pickItem, len(entries))
	for i, e := range entries {
		items[i] = pickItem{
			label: e.Title,
			hint:  e.UpdatedAt.Local().Format("Jan 2 15:04") + "  " + e.ShortID(),
			value: e.ID,
		}
	}
	m.mode = modeRecent
	m.input.Blur()
	m.picker = newPicker("Recent Chats", items, "No archived chats yet")
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chosen, done, cmd := m.picker.update(msg)
	if !done {
		return m, cmd
	}
	kind := m.mode
	m.closeOverlay()
	if chosen == nil {
		return m, nil
	}

	switch kind {
	case modeModels:
		m.ctl.SetModel(chosen.value)
		m.settings.Model.Path = m.ctl.Model()
		return m, m.setStatus("Model set to "+chosen.value, false)
	case modeRecent:
		return m.restore(chosen.value)
	}

	a, err := strconv.Atoi(chosen.value)
	if err != nil {
		return m, nil
	}
	return m.dispatch(menuAction(a))
}

// dispatch runs a menu action.
func (m Model) dispatch(a menuAction) (tea.Model, tea.Cmd) {
	switch a {
	case actSelectModel:
		if m.models == nil {
			m.dialogFor("Select Model", errNoModels)
			return m, nil
		}
		return m, listModels(m.models)
	case actSave, actLoad:
		m.openPath(a)
		return m, nil
	case actRecent:
		if m.archive == nil {
			m.dialogFor("Recent Chats", errNoArchive)
			return m, nil
		}
		return m, listRecent(m.archive, recentLimit)
	case actEditPrompt:
		m.openEditor()
		return m, nil
	case actSend:
		return m.send()
	case actStop:
		return m, m.stop()
	case actClear:
		return m, m.clear()
	case actFind:
		m.openFind()
		return m, nil
	case actToggleStyle:
		return m, m.toggleStyle()
	case actToggleWrap:
		return m, m.toggleWrap()
	case actCopy:
		return m, m.copyReply()
	case actAbout:
		m.openAbout()
		return m, nil
	case actExit:
		return m, tea.Quit
	}
	return m, nil
}

// restore reopens an archived chat.
func (m Model) restore(id string) (tea.Model, tea.Cmd) {
	e, err := m.archive.Get(id)
	if err != nil {
		return m.showError("Recent Chats", err)
	}
	if err := m.ctl.Restore(e); err != nil {
		return m.showError("Recent Chats", err)
	}
	m.settings.Model.Path = m.ctl.Model()
	m.afterReplace()
	return m, m.setStatus("Restored "+e.Title, false)
}

func (m *Model) openAbout() {
	m.mode = modeAbout
	m.input.Blur()
	m.about.SetContent(renderAbout(m.keys, m.about.Width, m.theme.IsDark))
	m.about.GotoTop()
}
