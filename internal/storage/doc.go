// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the chat archive for notepad.
//
// Every non-empty session that is cleared or left open at exit is archived
// to a SQLite database so it can be reopened from the Recent Chats menu or
// exported with `notepad archive export`.
//
// # Key Types
//
//   - Archive: the SQLite-backed store
//   - Entry: one archived chat with its turns
//   - EntryMeta: lightweight metadata for listing
//
// # Usage
//
//	archive, err := storage.Open(path, 200)
//	id, err := archive.Put(&storage.Entry{Model: "gemma3:1b", Turns: turns})
//	metas, err := archive.List(10)
//	entry, err := archive.Get(metas[0].ID)
//
// # Storage Location
//
// The database lives at ~/.notepad/archive.db unless [archive] path is set.
package storage
