// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/notepad-tui/internal/pad"
)

var (
	errNothingToCopy = errors.New("no reply to copy yet")
	errNoModels      = errors.New("the model list is unavailable")
	errNoArchive     = errors.New("the chat archive is disabled")
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles every message for the notepad.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		follow := m.AtBottom()
		m.resize()
		if m.ctl.Panel().Visible() {
			m.refreshPanel()
		}
		m.follow = follow
		m.refresh()
		return m, nil

	case pumpTickMsg:
		return m.pump()

	case spinner.TickMsg:
		if !m.ctl.Streaming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SettingsReloadedMsg:
		return m.applySettings(msg)

	case modelsMsg:
		if msg.err != nil {
			return m.showError("Select Model", msg.err)
		}
		m.openModels(msg.models)
		return m, nil

	case recentMsg:
		if msg.err != nil {
			return m.showError("Recent Chats", msg.err)
		}
		m.openRecent(msg.entries)
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			return m, m.setStatus("Copy failed: "+msg.err.Error(), true)
		}
		return m, m.setStatus("Reply copied to clipboard", false)

	case statusExpiredMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.mode == modeNormal {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// STREAMING
// =============================================================================

// pump drains the reply queue and reschedules itself while streaming.
func (m Model) pump() (tea.Model, tea.Cmd) {
	res := m.ctl.Pump(&m)
	if res.Chunks > 0 || res.Done {
		m.refresh()
	}
	if !res.Reschedule {
		m.pumping = false
		if res.Err != nil {
			return m, m.setStatus("Generation failed: "+res.Err.Error(), true)
		}
		if res.Done {
			return m, m.setStatus("Ready", false)
		}
		return m, nil
	}
	return m, pumpTick(m.interval)
}

// send starts a reply to the input text.
func (m Model) send() (tea.Model, tea.Cmd) {
	if err := m.ctl.Send(m.ctx, m.input.Value()); err != nil {
		return m.showError("Send", err)
	}
	m.input.Reset()
	m.follow = true
	m.refresh()

	cmds := []tea.Cmd{m.spinner.Tick}
	if !m.pumping {
		m.pumping = true
		cmds = append(cmds, pumpTick(m.interval))
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+q" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeFind:
		return m.updateFind(msg)
	case modePath:
		return m.updatePath(msg)
	case modePrompt:
		return m.updatePrompt(msg)
	case modeMenu, modeModels, modeRecent:
		return m.updatePicker(msg)
	case modeDialog:
		switch msg.String() {
		case "enter", "esc", " ":
			m.mode = modeNormal
		}
		return m, nil
	case modeAbout:
		switch msg.String() {
		case "esc", "enter", "q":
			m.mode = modeNormal
			return m, nil
		}
		var cmd tea.Cmd
		m.about, cmd = m.about.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.Menu):
		m.openMenu()
		return m, nil
	}

	if cmd, ok := m.runBinding(msg); ok {
		return m, cmd
	}
	if m.handleScroll(msg) {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runBinding runs the action bound to msg, if any.
func (m *Model) runBinding(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Stop):
		return m.stop(), true
	case key.Matches(msg, m.keys.Clear):
		return m.clear(), true
	case key.Matches(msg, m.keys.Find):
		m.openFind()
		return textinput.Blink, true
	case key.Matches(msg, m.keys.EditPrompt):
		m.openEditor()
		return nil, true
	case key.Matches(msg, m.keys.ToggleStyle):
		return m.toggleStyle(), true
	case key.Matches(msg, m.keys.Wrap):
		return m.toggleWrap(), true
	case key.Matches(msg, m.keys.Copy):
		return m.copyReply(), true
	case key.Matches(msg, m.keys.Close):
		if m.ctl.Panel().Visible() {
			m.ctl.Panel().Hide()
			m.resize()
			return nil, true
		}
	}
	return nil, false
}

func (m *Model) handleScroll(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	default:
		return false
	}
	return true
}

// =============================================================================
// MOUSE
// =============================================================================

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNormal && m.mode != modeFind {
		return m, nil
	}
	switch msg.Type {
	case tea.MouseWheelUp:
		m.viewport.LineUp(3)
	case tea.MouseWheelDown:
		m.viewport.LineDown(3)
	case tea.MouseLeft:
		if !msg.Ctrl && !msg.Alt {
			return m, nil
		}
		pos, ok := m.bufferOffset(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		if _, ok := m.ctl.Activate(pos); ok {
			m.refreshPanel()
		}
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) stop() tea.Cmd {
	if !m.ctl.Stop() {
		return m.setStatus("Nothing is being generated", false)
	}
	return m.setStatus("Stopping...", false)
}

func (m *Model) clear() tea.Cmd {
	if err := m.ctl.Clear(); err != nil {
		m.dialogFor("Clear", err)
		return nil
	}
	m.findStatus = ""
	m.resize()
	m.refresh()
	return m.setStatus("Cleared", false)
}

func (m *Model) toggleStyle() tea.Cmd {
	on := m.ctl.ToggleStyle()
	m.refresh()
	if m.ctl.Panel().Visible() {
		m.refreshPanel()
	}
	if on {
		return m.setStatus("Highlight style on", false)
	}
	return m.setStatus("Highlight style off", false)
}

func (m *Model) toggleWrap() tea.Cmd {
	m.wrap = !m.wrap
	m.refresh()
	if m.wrap {
		return m.setStatus("Word wrap on", false)
	}
	return m.setStatus("Word wrap off", false)
}

func (m *Model) copyReply() tea.Cmd {
	text := m.ctl.LastReply()
	copyText := m.copyText
	return func() tea.Msg {
		if text == "" {
			return clipboardMsg{err: errNothingToCopy}
		}
		return clipboardMsg{err: copyText(text)}
	}
}

// =============================================================================
// FIND
// =============================================================================

func (m *Model) openFind() {
	m.mode = modeFind
	m.findStatus = ""
	m.input.Blur()
	m.findInput.Focus()
	m.resize()
}

func (m Model) updateFind(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctl.CloseFind()
		m.mode = modeNormal
		m.findStatus = ""
		m.findInput.Blur()
		m.input.Focus()
		m.resize()
		m.refresh()
		return m, nil
	case "enter":
		m.find()
		return m, nil
	}
	if key.Matches(msg, m.keys.Find) {
		m.find()
		return m, nil
	}
	var cmd tea.Cmd
	m.findInput, cmd = m.findInput.Update(msg)
	return m, cmd
}

// find highlights the next hit and scrolls it into view.
func (m *Model) find() {
	match, err := m.ctl.Find(m.findInput.Value())
	m.refresh()
	if err != nil {
		m.findStatus = "Text not found; the next search starts at the top"
		return
	}
	m.findStatus = "Found at " + match.Index
	m.centerOn(match.Range.Start)
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

func (m *Model) openPath(action menuAction) {
	m.mode = modePath
	m.pathAction = action
	m.pathInput.Prompt = "Save to: "
	if action == actLoad {
		m.pathInput.Prompt = "Load from: "
	}
	if m.pathInput.Value() == "" {
		m.pathInput.SetValue("chat.json")
	}
	m.pathInput.CursorEnd()
	m.input.Blur()
	m.pathInput.Focus()
}

func (m Model) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeOverlay()
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		m.closeOverlay()
		if path == "" {
			return m, nil
		}
		if m.pathAction == actLoad {
			return m.load(path)
		}
		return m.save(path)
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) save(path string) (tea.Model, tea.Cmd) {
	if err := m.ctl.Save(path); err != nil {
		return m.showError("Save Chat", err)
	}
	return m, m.setStatus(fmt.Sprintf("Saved %d turns to %s", m.ctl.Session().Len(), path), false)
}

func (m Model) load(path string) (tea.Model, tea.Cmd) {
	n, err := m.ctl.Load(path)
	if err != nil {
		return m.showError("Load Chat", err)
	}
	m.afterReplace()
	return m, m.setStatus(fmt.Sprintf("Loaded %d turns from %s", n, path), false)
}

// afterReplace repaints after the session was swapped out.
func (m *Model) afterReplace() {
	m.findStatus = ""
	m.follow = true
	m.resize()
	m.refresh()
}

// =============================================================================
// SYSTEM PROMPT
// =============================================================================

func (m *Model) openEditor() {
	m.mode = modePrompt
	m.editor.SetValue(m.ctl.SystemPrompt())
	m.input.Blur()
	m.editor.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.closeOverlay()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		m.ctl.SetSystemPrompt(m.editor.Value())
		m.settings.Model.Prompt = m.ctl.SystemPrompt()
		m.closeOverlay()
		return m, m.setStatus("System prompt updated", false)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) closeOverlay() {
	m.mode = modeNormal
	m.picker = nil
	m.pathInput.Blur()
	m.editor.Blur()
	m.input.Focus()
}

// dialogFor opens a message dialog describing err.
func (m *Model) dialogFor(title string, err error) {
	m.mode = modeDialog
	m.dialogTitle = title
	m.dialogErr = true
	m.dialogText = errorText(err)
}

func (m Model) showError(title string, err error) (tea.Model, tea.Cmd) {
	m.logger.Printf("%s: %v", strings.ToLower(title), err)
	m.dialogFor(title, err)
	return m, nil
}

// errorText phrases an error for a dialog.
func errorText(err error) string {
	var pe *pad.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case pad.KindBusy:
			return "Please wait: " + pe.Message + "."
		case pad.KindInvalid:
			if pe.Cause != nil {
				return pe.Message + ": " + pe.Cause.Error()
			}
			return pe.Message
		}
	}
	return err.Error()
}

// setStatus shows a transient status line.
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusID++
	m.status = text
	m.statusErr = isErr
	return expireStatus(m.statusID)
}

// =============================================================================
// SETTINGS
// =============================================================================

// applySettings takes over bindings, model and system prompt from an
// edited settings file.
func (m Model) applySettings(msg SettingsReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.setStatus("Settings not reloaded: "+msg.Err.Error(), true)
	}
	s := msg.Settings
	m.settings = s
	m.keys = NewKeyMap(s)
	if s.Model.Path != "" {
		m.ctl.SetModel(s.Model.Path)
	}
	m.ctl.SetSystemPrompt(s.Model.Prompt)
	m.logger.Printf("settings reloaded: model %s", m.ctl.Model())
	return m, m.setStatus("Settings reloaded", false)
}
