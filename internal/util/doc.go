// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across notepad.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: truncation by terminal cell width
//   - RuneOffsetAtCell: maps a mouse column to a rune offset
//
// File Operations:
//   - AtomicWrite: streams a file into place through a temp file and fsync
//   - AtomicWriteFile: AtomicWrite for an in-memory byte slice
package util
