// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for notepad.
//
// Two files live in the config directory (~/.notepad, or $NOTEPAD_HOME):
//
//   - config.toml: application settings (Ollama endpoint, sampling, UI,
//     archive, logging)
//   - settings.json: model, system prompt and key bindings, saved on exit
//
// # Configuration Precedence
//
// For config.toml values:
//   - Environment variables (NOTEPAD_OLLAMA_URL, NOTEPAD_DEBUG, NOTEPAD_PUMP_MS)
//   - ~/.notepad/config.toml
//   - Built-in defaults
//
// NOTEPAD_MODEL overrides the model named in settings.json.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	path, _ := config.PathSettings()
//	settings, err := config.LoadSettings(path)
//
// External edits to settings.json are picked up with WatchSettings.
package config
