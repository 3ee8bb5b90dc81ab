// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/llm/llmtest"
	"github.com/jeranaias/notepad-tui/internal/pad"
	"github.com/jeranaias/notepad-tui/internal/transcript"
	"github.com/jeranaias/notepad-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestModel(t *testing.T, engine *llmtest.Scripted, copied *string) Model {
	t.Helper()
	if engine == nil {
		engine = &llmtest.Scripted{}
	}
	ctl := pad.New(pad.Options{Engine: engine, Model: "test-model", HighlightStyle: true})
	m := New(Options{
		Controller:   ctl,
		Settings:     config.DefaultSettings(),
		Theme:        styles.NewTheme("dark"),
		Wrap:         true,
		PumpInterval: time.Millisecond,
		Clipboard: func(s string) error {
			if copied != nil {
				*copied = s
			}
			return nil
		},
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func ctrl(r tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: r}
}

func pumpAll(t *testing.T, m Model) Model {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.ctl.Streaming() {
		require.True(t, time.Now().Before(deadline), "stream did not finish")
		m, _ = update(t, m, pumpTickMsg{})
		time.Sleep(time.Millisecond)
	}
	return m
}

func loadTurns(t *testing.T, m Model, turns ...transcript.Turn) Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, transcript.SaveFile(path, turns))
	next, _ := m.load(path)
	m = next.(Model)
	require.Equal(t, modeNormal, m.mode, m.dialogText)
	return m
}

// =============================================================================
// SEND / PUMP
// =============================================================================

func TestModel_SendStreamsIntoTranscript(t *testing.T) {
	m := newTestModel(t, &llmtest.Scripted{Chunks: []string{"Hi", "Hi there"}}, nil)

	m.input.SetValue("Hello")
	m, cmd := update(t, m, ctrl(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.True(t, m.pumping)
	assert.Empty(t, m.input.Value())

	m = pumpAll(t, m)
	assert.False(t, m.pumping)
	assert.Equal(t, "User: Hello\nAssistant: Hi there\n\n\n\n", m.ctl.Buffer().String())
	assert.Equal(t, "Hi there", m.ctl.Session().LastAssistant())
	assert.Equal(t, "Ready", m.status)
}

func TestModel_EmptyPromptOpensDialog(t *testing.T) {
	m := newTestModel(t, nil, nil)

	m.input.SetValue("   ")
	m, _ = update(t, m, ctrl(tea.KeyCtrlS))
	assert.Equal(t, modeDialog, m.mode)
	assert.True(t, m.dialogErr)
	assert.Contains(t, m.dialogText, "prompt is empty")
	assert.False(t, m.ctl.Streaming())

	m, _ = update(t, m, ctrl(tea.KeyEnter))
	assert.Equal(t, modeNormal, m.mode)
}

func TestModel_FollowsBottomWhileStreaming(t *testing.T) {
	chunks := []string{"line"}
	for i := 0; i < 60; i++ {
		chunks = append(chunks, chunks[len(chunks)-1]+"\nline")
	}
	m := newTestModel(t, &llmtest.Scripted{Chunks: chunks}, nil)

	m.input.SetValue("many lines")
	m, _ = update(t, m, ctrl(tea.KeyCtrlS))
	m = pumpAll(t, m)

	assert.True(t, m.viewport.TotalLineCount() > m.viewport.Height)
	assert.True(t, m.AtBottom(), "view should stay at the bottom")
}

// =============================================================================
// CROSS-REFERENCE
// =============================================================================

func TestModel_AltClickOpensPanel(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = loadTurns(t, m,
		transcript.Turn{User: "alpha beta", Assistant: "alpha"},
		transcript.Turn{User: "more alpha", Assistant: "ok"},
	)
	require.True(t, strings.HasPrefix(m.ctl.Buffer().String(), "User: alpha beta\nAssistant: alpha\n"))

	// row 1 is "Assistant: alpha"; the token starts at column 11
	click := tea.MouseMsg{X: 12, Y: headerHeight + 1, Type: tea.MouseLeft, Alt: true}
	m, _ = update(t, m, click)
	require.True(t, m.ctl.Panel().Visible())
	res := m.ctl.Panel().Last()
	assert.Equal(t, "alpha", res.Query)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 0, res.Index)
	assert.Len(t, m.panelRows, 2)

	m, _ = update(t, m, click)
	assert.Equal(t, 1, m.ctl.Panel().Last().Index)

	m, _ = update(t, m, ctrl(tea.KeyEsc))
	assert.False(t, m.ctl.Panel().Visible())
}

func TestModel_PlainClickIgnored(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = loadTurns(t, m, transcript.Turn{User: "alpha", Assistant: "alpha"})

	m, _ = update(t, m, tea.MouseMsg{X: 12, Y: headerHeight + 1, Type: tea.MouseLeft})
	assert.False(t, m.ctl.Panel().Visible())

	// off-token click with a modifier
	m, _ = update(t, m, tea.MouseMsg{X: 2, Y: headerHeight + 1, Type: tea.MouseLeft, Ctrl: true})
	assert.False(t, m.ctl.Panel().Visible())
}

// =============================================================================
// FIND
// =============================================================================

func TestModel_FindHighlightsAndCloses(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = loadTurns(t, m, transcript.Turn{User: "Hello", Assistant: "hello again"})

	m, _ = update(t, m, ctrl(tea.KeyCtrlF))
	require.Equal(t, modeFind, m.mode)

	m.findInput.SetValue("hello")
	m, _ = update(t, m, ctrl(tea.KeyEnter))
	assert.Equal(t, "Found at 1.6", m.findStatus)
	assert.Len(t, m.ctl.Buffer().TagRanges(transcript.TagFindHighlight), 1)

	m, _ = update(t, m, ctrl(tea.KeyEnter))
	assert.Equal(t, "Found at 2.11", m.findStatus)

	m, _ = update(t, m, ctrl(tea.KeyEnter))
	assert.True(t, strings.HasPrefix(m.findStatus, "Text not found"))
	assert.Len(t, m.ctl.Buffer().TagRanges(transcript.TagFindHighlight), 1)

	m, _ = update(t, m, ctrl(tea.KeyEsc))
	assert.Equal(t, modeNormal, m.mode)
	assert.Empty(t, m.ctl.Buffer().TagRanges(transcript.TagFindHighlight))
}

// =============================================================================
// MENU / SETTINGS / CLIPBOARD
// =============================================================================

func TestModel_MenuTogglesWrap(t *testing.T) {
	m := newTestModel(t, nil, nil)
	require.True(t, m.wrap)

	m, _ = update(t, m, ctrl(tea.KeyCtrlO))
	require.Equal(t, modeMenu, m.mode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("wrap")})
	require.NotEmpty(t, m.picker.filtered)
	assert.Equal(t, "Toggle Wrap", m.picker.filtered[0].label)

	m, _ = update(t, m, ctrl(tea.KeyEnter))
	assert.Equal(t, modeNormal, m.mode)
	assert.False(t, m.wrap)
}

func TestModel_SettingsReload(t *testing.T) {
	m := newTestModel(t, nil, nil)

	s := config.DefaultSettings()
	s.Model.Path = "other:7b"
	s.Model.Prompt = "Be brief."
	s.Bindings[config.ActionSend] = "ctrl+g"
	m, _ = update(t, m, SettingsReloadedMsg{Settings: s})

	assert.Equal(t, "other:7b", m.ctl.Model())
	assert.Equal(t, "Be brief.", m.ctl.SystemPrompt())
	assert.Equal(t, []string{"ctrl+g"}, m.keys.Send.Keys())
	assert.Equal(t, "Settings reloaded", m.status)
}

func TestModel_EditSystemPrompt(t *testing.T) {
	m := newTestModel(t, nil, nil)

	m, _ = update(t, m, ctrl(tea.KeyCtrlP))
	require.Equal(t, modePrompt, m.mode)
	assert.Equal(t, m.ctl.SystemPrompt(), m.editor.Value())

	m.editor.SetValue("Answer in French.")
	m, _ = update(t, m, ctrl(tea.KeyCtrlS))
	assert.Equal(t, modeNormal, m.mode)
	assert.Equal(t, "Answer in French.", m.ctl.SystemPrompt())
	assert.Equal(t, "Answer in French.", m.Settings().Model.Prompt)
}

func TestModel_CopyLastReply(t *testing.T) {
	var copied string
	m := newTestModel(t, nil, &copied)

	_, cmd := update(t, m, ctrl(tea.KeyCtrlY))
	require.NotNil(t, cmd)
	msg := cmd().(clipboardMsg)
	assert.ErrorIs(t, msg.err, errNothingToCopy)

	m = loadTurns(t, m, transcript.Turn{User: "q", Assistant: "**answer**"})
	m, cmd = update(t, m, ctrl(tea.KeyCtrlY))
	m, _ = update(t, m, cmd())
	assert.Equal(t, "answer", copied)
	assert.Equal(t, "Reply copied to clipboard", m.status)
}

func TestModel_SaveEmptySessionReportsDialog(t *testing.T) {
	m := newTestModel(t, nil, nil)

	next, _ := m.save(filepath.Join(t.TempDir(), "x.json"))
	m = next.(Model)
	assert.Equal(t, modeDialog, m.mode)
	assert.Equal(t, "Nothing to save yet", m.dialogText)
}

func TestModel_StatusExpires(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.setStatus("one", false)
	id := m.statusID
	m.setStatus("two", false)

	m, _ = update(t, m, statusExpiredMsg{id: id})
	assert.Equal(t, "two", m.status)
	m, _ = update(t, m, statusExpiredMsg{id: m.statusID})
	assert.Empty(t, m.status)
}

// =============================================================================
// RENDERING
// =============================================================================

func TestLayout_WrapsAtSpaces(t *testing.T) {
	rows := layout([]rune("aaa bbb ccc\nx"), 8, true)
	require.Len(t, rows, 3)
	assert.Equal(t, "aaa bbb ", string(rows[0].text))
	assert.Equal(t, "ccc", string(rows[1].text))
	assert.Equal(t, 8, rows[1].start)
	assert.Equal(t, "x", string(rows[2].text))
	assert.Equal(t, 12, rows[2].start)
}

func TestLayout_NoWrapAndLongWords(t *testing.T) {
	rows := layout([]rune("abcdefghij"), 4, false)
	require.Len(t, rows, 1)

	rows = layout([]rune("abcdefghij"), 4, true)
	require.Len(t, rows, 3)
	assert.Equal(t, "ij", string(rows[2].text))

	rows = layout([]rune("a\n\nb"), 10, true)
	assert.Len(t, rows, 3)
}

func TestRowForAndOffsetAt(t *testing.T) {
	rows := layout([]rune("ab\n\tcd"), 20, true)
	assert.Equal(t, 0, rowFor(rows, 1))
	assert.Equal(t, 1, rowFor(rows, 3))
	assert.Equal(t, 1, rowFor(rows, 99))

	// the tab spans four cells
	assert.Equal(t, 3, offsetAt(rows[1], 2))
	assert.Equal(t, 4, offsetAt(rows[1], 4))
}

func TestRenderRow_ExpandsTabsAndCuts(t *testing.T) {
	r := row{start: 0, text: []rune("a\tb")}
	assert.Equal(t, "a    b", renderRow(r, []int{-1, -1, -1}, nil, 0))
	assert.Equal(t, "a", renderRow(r, []int{-1, -1, -1}, nil, 3))
}

func TestFuzzyScore(t *testing.T) {
	_, ok := fuzzyScore("sv", "Save Chat")
	assert.True(t, ok)
	_, ok = fuzzyScore("xyz", "Save Chat")
	assert.False(t, ok)

	start, _ := fuzzyScore("fi", "Find")
	mid, _ := fuzzyScore("fi", "Toggle Highlight Style")
	assert.Greater(t, start, mid)
}
