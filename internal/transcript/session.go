// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the chat session (ordered user/assistant turns),
// its JSON file format, and the rendered transcript buffer that tracks where
// each assistant reply lives.
package transcript

import (
	"errors"
	"strings"
)

// ErrEmptyUser is returned when a turn is started with a blank prompt.
var ErrEmptyUser = errors.New("user message is empty")

// =============================================================================
// TURN / SESSION
// =============================================================================

// Turn is one prompt and the reply it produced.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Session is the ordered list of turns. It is owned by the UI goroutine.
type Session struct {
	turns []Turn
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Append starts a new turn with an empty reply.
func (s *Session) Append(user string) error {
	if strings.TrimSpace(user) == "" {
		return ErrEmptyUser
	}
	s.turns = append(s.turns, Turn{User: user})
	return nil
}

// Len returns the number of turns.
func (s *Session) Len() int {
	return len(s.turns)
}

// Empty reports whether the session has no turns.
func (s *Session) Empty() bool {
	return len(s.turns) == 0
}

// Turn returns the i-th turn.
func (s *Session) Turn(i int) (Turn, bool) {
	if i < 0 || i >= len(s.turns) {
		return Turn{}, false
	}
	return s.turns[i], true
}

// Turns returns a copy of all turns.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// History returns every turn before the current (last) one.
func (s *Session) History() []Turn {
	if len(s.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(s.turns)-1)
	copy(out, s.turns[:len(s.turns)-1])
	return out
}

// Users returns the user prompts in order.
func (s *Session) Users() []string {
	out := make([]string, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.User
	}
	return out
}

// SetLastAssistant overwrites the reply of the current turn.
func (s *Session) SetLastAssistant(text string) {
	if len(s.turns) == 0 {
		return
	}
	s.turns[len(s.turns)-1].Assistant = text
}

// LastAssistant returns the reply of the most recent turn.
func (s *Session) LastAssistant() string {
	if len(s.turns) == 0 {
		return ""
	}
	return s.turns[len(s.turns)-1].Assistant
}

// Replace swaps in a new list of turns.
func (s *Session) Replace(turns []Turn) {
	s.turns = make([]Turn, len(turns))
	copy(s.turns, turns)
}

// Clear drops every turn.
func (s *Session) Clear() {
	s.turns = nil
}
