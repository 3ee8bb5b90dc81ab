// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notepad is the full-screen terminal front end of the notepad.
//
// The window is a header, the transcript pane, an optional cross-reference
// pane, the find bar, the prompt input and a status bar. All transcript
// state lives in a pad.Controller; this package only draws it and turns
// keys, clicks and timer ticks into controller calls.
//
// # Streaming
//
// Send starts a pump tick at the configured interval. Each tick calls
// Controller.Pump with the model as its pad.View and reschedules itself
// until the reply is finished.
//
// # Rendering
//
// The transcript buffer is laid out into visual rows that remember the
// buffer offset of their first rune, so a ctrl or alt click can be mapped
// back to a buffer position and handed to Controller.Activate. Tag styles
// come from styles.Theme.TagStyle.
//
// Usage:
//
//	m := notepad.New(notepad.Options{Controller: ctl, Settings: settings})
//	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
package notepad
