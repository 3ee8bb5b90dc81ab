// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/notepad-tui/internal/llm"
	"github.com/jeranaias/notepad-tui/internal/util"
)

// DefaultModel is used when settings.json names no model or a missing one.
const DefaultModel = "gemma3:1b"

// Bindable actions.
const (
	ActionSend             = "send"
	ActionFind             = "find"
	ActionEditSystemPrompt = "edit-system-prompt"
	ActionStopGeneration   = "stop-generation"
	ActionClear            = "clear"
	ActionToggleStyle      = "toggle-style"
)

// Settings is the content of settings.json.
type Settings struct {
	Model    ModelSettings     `json:"model"`
	Bindings map[string]string `json:"bindings"`
}

// ModelSettings names the model and its system prompt.
type ModelSettings struct {
	// Path is an Ollama model name or a path to a .gguf file
	Path   string `json:"path"`
	Prompt string `json:"prompt"`
}

// DefaultBindings returns the accelerator for every action.
func DefaultBindings() map[string]string {
	return map[string]string{
		ActionSend:             "ctrl+s",
		ActionFind:             "ctrl+f",
		ActionEditSystemPrompt: "ctrl+p",
		ActionStopGeneration:   "ctrl+z",
		ActionClear:            "ctrl+x",
		ActionToggleStyle:      "ctrl+d",
	}
}

// DefaultSettings returns settings used when no file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Model: ModelSettings{
			Path:   DefaultModel,
			Prompt: llm.DefaultSystemPrompt,
		},
		Bindings: DefaultBindings(),
	}
}

// LoadSettings reads settings.json. A missing file yields defaults; fields
// absent from the file keep their defaults. Accelerators are normalized to
// terminal key names.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var file Settings
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if p := strings.TrimSpace(file.Model.Path); p != "" {
		s.Model.Path = p
	}
	if file.Model.Prompt != "" {
		s.Model.Prompt = file.Model.Prompt
	}
	for action, accel := range file.Bindings {
		if key := NormalizeAccelerator(accel); key != "" {
			s.Bindings[action] = key
		}
	}
	return s, nil
}

// SaveSettings writes settings.json atomically.
func SaveSettings(path string, s *Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	data = append(data, '\n')
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// ApplySettingsEnv applies NOTEPAD_MODEL, which wins over settings.json.
func ApplySettingsEnv(s *Settings) {
	if m := strings.TrimSpace(os.Getenv("NOTEPAD_MODEL")); m != "" {
		s.Model.Path = m
	}
}

// ResolveModel replaces the configured model with DefaultModel when exists
// reports it absent. It returns true if a fallback happened.
func (s *Settings) ResolveModel(exists func(model string) bool) bool {
	if s.Model.Path != "" && exists(s.Model.Path) {
		return false
	}
	if s.Model.Path == DefaultModel {
		return false
	}
	s.Model.Path = DefaultModel
	return true
}

// Binding returns the accelerator for action, falling back to the default.
func (s *Settings) Binding(action string) string {
	if key, ok := s.Bindings[action]; ok && key != "" {
		return key
	}
	return DefaultBindings()[action]
}

// =============================================================================
// ACCELERATORS
// =============================================================================

var modifierNames = map[string]string{
	"control": "ctrl",
	"ctrl":    "ctrl",
	"alt":     "alt",
	"meta":    "alt",
	"option":  "alt",
	"shift":   "shift",
}

var keyNames = map[string]string{
	"return":    "enter",
	"enter":     "enter",
	"escape":    "esc",
	"esc":       "esc",
	"space":     " ",
	"tab":       "tab",
	"backspace": "backspace",
	"delete":    "delete",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"prior":     "pgup",
	"next":      "pgdown",
	"home":      "home",
	"end":       "end",
}

// NormalizeAccelerator converts an accelerator in either terminal form
// ("ctrl+f") or the legacy form ("Control-f", "<Control-f>") to the key
// string bubbletea reports. Shift+Return cannot be distinguished by a
// terminal and maps to ctrl+s. Unrecognized input returns "".
func NormalizeAccelerator(accel string) string {
	a := strings.TrimSpace(accel)
	a = strings.TrimPrefix(a, "<")
	a = strings.TrimSuffix(a, ">")
	if a == "" {
		return ""
	}

	sep := "-"
	if strings.Contains(a, "+") {
		sep = "+"
	}
	parts := strings.Split(a, sep)
	// A trailing separator means the key itself is the separator character.
	if parts[len(parts)-1] == "" && len(parts) > 1 {
		parts = append(parts[:len(parts)-2], sep)
	}

	key := parts[len(parts)-1]
	var mods []string
	for _, m := range parts[:len(parts)-1] {
		name, ok := modifierNames[strings.ToLower(m)]
		if !ok {
			return ""
		}
		mods = append(mods, name)
	}

	if k, ok := keyNames[strings.ToLower(key)]; ok {
		key = k
	} else if len([]rune(key)) == 1 {
		key = strings.ToLower(key)
	} else if fk := strings.ToLower(key); len(fk) >= 2 && fk[0] == 'f' && isDigits(fk[1:]) {
		key = fk
	} else {
		return ""
	}

	hasShift := false
	var ordered []string
	for _, want := range []string{"ctrl", "alt", "shift"} {
		for _, m := range mods {
			if m == want {
				if want == "shift" {
					hasShift = true
				}
				ordered = append(ordered, want)
				break
			}
		}
	}

	if hasShift && key == "enter" && len(ordered) == 1 {
		return "ctrl+s"
	}
	if key == " " && len(ordered) == 0 {
		return " "
	}
	return strings.Join(append(ordered, key), "+")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
