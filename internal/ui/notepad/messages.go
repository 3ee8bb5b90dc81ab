// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/storage"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// pumpTickMsg drives the queue pump while a reply is streaming.
type pumpTickMsg struct{}

func pumpTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pumpTickMsg{}
	})
}

// =============================================================================
// SETTINGS MESSAGES
// =============================================================================

// SettingsReloadedMsg carries settings.json after an external edit. It is
// sent from the settings watcher via tea.Program.Send.
type SettingsReloadedMsg struct {
	Settings *config.Settings
	Err      error
}

// =============================================================================
// MODEL / ARCHIVE MESSAGES
// =============================================================================

type modelsMsg struct {
	models []string
	err    error
}

func listModels(l ModelLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		models, err := l.Models(ctx)
		return modelsMsg{models: models, err: err}
	}
}

type recentMsg struct {
	entries []storage.EntryMeta
	err     error
}

func listRecent(a *storage.Archive, limit int) tea.Cmd {
	return func() tea.Msg {
		entries, err := a.List(limit)
		return recentMsg{entries: entries, err: err}
	}
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// statusExpiredMsg clears the status line if it still shows message id.
type statusExpiredMsg struct {
	id int
}

const statusDuration = 4 * time.Second

func expireStatus(id int) tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}

type clipboardMsg struct {
	err error
}
