// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/notepad-tui/internal/transcript"
	"github.com/jeranaias/notepad-tui/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Entry is one archived chat.
type Entry struct {
	ID        string
	Title     string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     []transcript.Turn
}

// EntryMeta contains metadata for listing entries.
type EntryMeta struct {
	ID        string
	Title     string
	Model     string
	UpdatedAt time.Time
	TurnCount int
}

// ShortID is the prefix shown in listings and accepted by Get.
func (m EntryMeta) ShortID() string {
	if len(m.ID) > 8 {
		return m.ID[:8]
	}
	return m.ID
}

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	turn_count INTEGER NOT NULL,
	turns      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(updated_at DESC);
`

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive stores chats in SQLite.
type Archive struct {
	db *sql.DB

	// MaxEntries limits stored chats (0 = unlimited)
	MaxEntries int
}

// Open opens or creates the archive database at path.
func Open(path string, maxEntries int) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Archive{db: db, MaxEntries: maxEntries}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Put stores an entry and returns its ID. An entry whose ID already exists
// is replaced, keeping its creation time. Empty entries are refused.
func (a *Archive) Put(e *Entry) (string, error) {
	if len(e.Turns) == 0 {
		return "", ErrEmptyEntry
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Title == "" {
		e.Title = titleFor(e.Turns)
	}
	e.UpdatedAt = time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = e.UpdatedAt
	}

	var buf bytes.Buffer
	if err := transcript.Encode(&buf, e.Turns); err != nil {
		return "", err
	}

	_, err := a.db.Exec(`
		INSERT INTO chats (id, title, model, created_at, updated_at, turn_count, turns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			model = excluded.model,
			updated_at = excluded.updated_at,
			turn_count = excluded.turn_count,
			turns = excluded.turns`,
		e.ID, e.Title, e.Model, e.CreatedAt.UnixNano(), e.UpdatedAt.UnixNano(), len(e.Turns), buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to archive chat: %w", err)
	}

	if a.MaxEntries > 0 {
		if err := a.enforceLimit(); err != nil {
			return e.ID, err
		}
	}
	return e.ID, nil
}

// titleFor derives a title from the first user message.
func titleFor(turns []transcript.Turn) string {
	for _, t := range turns {
		if line := util.FirstLine(t.User); line != "" {
			return util.TruncateRunes(line, 60)
		}
	}
	return "Untitled chat"
}

// enforceLimit removes the oldest entries beyond MaxEntries.
func (a *Archive) enforceLimit() error {
	_, err := a.db.Exec(`
		DELETE FROM chats WHERE id NOT IN (
			SELECT id FROM chats ORDER BY updated_at DESC, rowid DESC LIMIT ?
		)`, a.MaxEntries)
	if err != nil {
		return fmt.Errorf("failed to prune archive: %w", err)
	}
	return nil
}

// Delete removes an entry by ID or unique ID prefix.
func (a *Archive) Delete(id string) error {
	full, err := a.resolve(id)
	if err != nil {
		return err
	}
	_, err = a.db.Exec("DELETE FROM chats WHERE id = ?", full)
	return err
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// List returns up to limit entries, most recent first (limit <= 0 = all).
func (a *Archive) List(limit int) ([]EntryMeta, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := a.db.Query(`
		SELECT id, title, model, updated_at, turn_count FROM chats
		ORDER BY updated_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanMetas(rows)
}

// Search finds entries whose title or turns contain query, case-insensitively.
func (a *Archive) Search(query string) ([]EntryMeta, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := a.db.Query(`
		SELECT id, title, model, updated_at, turn_count FROM chats
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(turns) LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC, rowid DESC`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return scanMetas(rows)
}

// Get loads an entry by ID or unique ID prefix.
func (a *Archive) Get(id string) (*Entry, error) {
	full, err := a.resolve(id)
	if err != nil {
		return nil, err
	}

	var (
		e                Entry
		created, updated int64
		turns            string
	)
	err = a.db.QueryRow(`
		SELECT id, title, model, created_at, updated_at, turns FROM chats WHERE id = ?`, full).
		Scan(&e.ID, &e.Title, &e.Model, &created, &updated, &turns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(0, created)
	e.UpdatedAt = time.Unix(0, updated)

	e.Turns, err = transcript.Decode(strings.NewReader(turns))
	if err != nil {
		return nil, fmt.Errorf("archived chat %s is corrupt: %w", e.ID, err)
	}
	return &e, nil
}

// GetByIndex loads the entry at position index of List (0 = most recent).
func (a *Archive) GetByIndex(index int) (*Entry, error) {
	metas, err := a.List(index + 1)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrEntryNotFound
	}
	return a.Get(metas[index].ID)
}

// Count returns the number of stored entries.
func (a *Archive) Count() (int, error) {
	var n int
	err := a.db.QueryRow("SELECT COUNT(*) FROM chats").Scan(&n)
	return n, err
}

// resolve expands an ID prefix to a full ID.
func (a *Archive) resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEntryNotFound
	}
	rows, err := a.db.Query("SELECT id FROM chats WHERE id LIKE ? ESCAPE '\\' LIMIT 2", escapeLike(id)+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", err
		}
		ids = append(ids, s)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch {
	case len(ids) == 0:
		return "", ErrEntryNotFound
	case len(ids) > 1 && ids[0] != id && ids[1] != id:
		return "", ErrAmbiguousID
	case len(ids) > 1:
		return id, nil
	}
	return ids[0], nil
}

func scanMetas(rows *sql.Rows) ([]EntryMeta, error) {
	defer rows.Close()
	metas := []EntryMeta{}
	for rows.Next() {
		var (
			m       EntryMeta
			updated int64
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Model, &updated, &m.TurnCount); err != nil {
			return nil, err
		}
		m.UpdatedAt = time.Unix(0, updated)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEntryNotFound is returned when no entry matches an ID.
	ErrEntryNotFound = &ArchiveError{Message: "archived chat not found"}

	// ErrAmbiguousID is returned when an ID prefix matches several entries.
	ErrAmbiguousID = &ArchiveError{Message: "ID prefix matches more than one chat"}

	// ErrEmptyEntry is returned when archiving a chat with no turns.
	ErrEmptyEntry = &ArchiveError{Message: "nothing to archive"}
)

// ArchiveError represents an archive-related error.
// It can be compared using errors.Is.
type ArchiveError struct {
	Message string
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing archive errors.
func (e *ArchiveError) Is(target error) bool {
	t, ok := target.(*ArchiveError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
