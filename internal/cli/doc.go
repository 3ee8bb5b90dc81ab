// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the notepad command line and implements the commands
// that run without the full-screen UI.
//
// # Commands
//
//	notepad                  full-screen notepad (see package ui/notepad)
//	notepad chat             line-mode chat over the same controller
//	notepad archive ...      list, show, export or delete archived chats
//	notepad version | help
//
// Setup builds the shared Env (config.toml, settings.json, log file, Ollama
// engine, archive) that both front ends run on.
package cli
