// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/notepad-tui/internal/llm"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete config.toml.
type Config struct {
	Ollama   OllamaConfig   `toml:"ollama"`
	Sampling SamplingConfig `toml:"sampling"`
	UI       UIConfig       `toml:"ui"`
	Archive  ArchiveConfig  `toml:"archive"`
	Log      LogConfig      `toml:"log"`
}

// OllamaConfig locates the local inference server.
type OllamaConfig struct {
	// URL is the Ollama API base URL
	URL string `toml:"url"`
	// TimeoutSecs bounds non-streaming requests (model list, load, show)
	TimeoutSecs int `toml:"timeout_secs"`
	// KeepAlive is how long Ollama keeps the model resident, e.g. "5m"
	KeepAlive string `toml:"keep_alive"`
}

// SamplingConfig holds generation parameters.
type SamplingConfig struct {
	Temperature   float64 `toml:"temperature"`
	TopP          float64 `toml:"top_p"`
	TopK          int     `toml:"top_k"`
	MaxTokens     int     `toml:"max_tokens"`
	RepeatPenalty float64 `toml:"repeat_penalty"`
	NumCtx        int     `toml:"num_ctx"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// Wrap soft-wraps long transcript lines
	Wrap bool `toml:"wrap"`
	// HighlightStyle draws user tokens bold and underlined
	HighlightStyle bool `toml:"highlight_style"`
	// PumpIntervalMs is how often streamed text is moved into the transcript
	PumpIntervalMs int `toml:"pump_interval_ms"`
}

// ArchiveConfig controls the chat archive database.
type ArchiveConfig struct {
	Enabled bool `toml:"enabled"`
	// Path of the sqlite file; empty means <config dir>/archive.db
	Path string `toml:"path"`
	// MaxEntries caps stored chats (0 = unlimited)
	MaxEntries int `toml:"max_entries"`
}

// LogConfig controls the diagnostics log.
type LogConfig struct {
	// File is the log path; empty means <config dir>/notepad.log
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	s := llm.DefaultSampling()
	return &Config{
		Ollama: OllamaConfig{
			URL:         "http://127.0.0.1:11434",
			TimeoutSecs: 30,
			KeepAlive:   "5m",
		},
		Sampling: SamplingConfig{
			Temperature:   s.Temperature,
			TopP:          s.TopP,
			TopK:          s.TopK,
			MaxTokens:     s.MaxTokens,
			RepeatPenalty: s.RepeatPenalty,
			NumCtx:        s.NumCtx,
		},
		UI: UIConfig{
			Theme:          "auto",
			Wrap:           true,
			HighlightStyle: true,
			PumpIntervalMs: 50,
		},
		Archive: ArchiveConfig{
			Enabled:    true,
			MaxEntries: 200,
		},
	}
}

// LLMSampling converts the sampling section for the engine.
func (c *Config) LLMSampling() llm.Sampling {
	return llm.Sampling{
		Temperature:   c.Sampling.Temperature,
		TopP:          c.Sampling.TopP,
		TopK:          c.Sampling.TopK,
		MaxTokens:     c.Sampling.MaxTokens,
		RepeatPenalty: c.Sampling.RepeatPenalty,
		NumCtx:        c.Sampling.NumCtx,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the notepad configuration directory path.
func Dir() (string, error) {
	if dir := os.Getenv("NOTEPAD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".notepad"), nil
}

// PathTOML returns the path to config.toml.
func PathTOML() (string, error) {
	return inDir("config.toml")
}

// PathSettings returns the path to settings.json.
func PathSettings() (string, error) {
	return inDir("settings.json")
}

// ArchivePath resolves the archive database location.
func (c *Config) ArchivePath() (string, error) {
	if c.Archive.Path != "" {
		return c.Archive.Path, nil
	}
	return inDir("archive.db")
}

// LogPath resolves the log file location.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return inDir("notepad.log")
}

func inDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads config.toml from the config directory. A missing file yields
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := PathTOML()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a specific config.toml.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg and fills missing values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills in any zero values with defaults.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = d.Ollama.URL
	}
	if cfg.Ollama.TimeoutSecs == 0 {
		cfg.Ollama.TimeoutSecs = d.Ollama.TimeoutSecs
	}
	if cfg.Ollama.KeepAlive == "" {
		cfg.Ollama.KeepAlive = d.Ollama.KeepAlive
	}
	if cfg.Sampling.TopK == 0 {
		cfg.Sampling.TopK = d.Sampling.TopK
	}
	if cfg.Sampling.TopP == 0 {
		cfg.Sampling.TopP = d.Sampling.TopP
	}
	if cfg.Sampling.MaxTokens == 0 {
		cfg.Sampling.MaxTokens = d.Sampling.MaxTokens
	}
	if cfg.Sampling.RepeatPenalty == 0 {
		cfg.Sampling.RepeatPenalty = d.Sampling.RepeatPenalty
	}
	if cfg.Sampling.NumCtx == 0 {
		cfg.Sampling.NumCtx = d.Sampling.NumCtx
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = d.UI.Theme
	}
	if cfg.UI.PumpIntervalMs == 0 {
		cfg.UI.PumpIntervalMs = d.UI.PumpIntervalMs
	}
}

// SaveTOML writes the configuration with a short header.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# notepad configuration file")
	fmt.Fprintln(file, "# Model, system prompt and key bindings live in settings.json")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks value ranges and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Ollama.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "ollama.url", Message: fmt.Sprintf("invalid URL %q", c.Ollama.URL)})
	}
	if c.Ollama.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "ollama.timeout_secs", Message: "must not be negative"})
	}
	if c.Sampling.Temperature < 0 || c.Sampling.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "sampling.temperature", Message: "must be between 0.0 and 2.0"})
	}
	if c.Sampling.TopP < 0 || c.Sampling.TopP > 1 {
		errs = append(errs, ValidationError{Field: "sampling.top_p", Message: "must be between 0.0 and 1.0"})
	}
	if c.Sampling.TopK < 0 {
		errs = append(errs, ValidationError{Field: "sampling.top_k", Message: "must not be negative"})
	}
	if c.Sampling.MaxTokens < -1 {
		errs = append(errs, ValidationError{Field: "sampling.max_tokens", Message: "must be -1 (unlimited) or positive"})
	}
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)})
	}
	if c.UI.PumpIntervalMs < 10 || c.UI.PumpIntervalMs > 1000 {
		errs = append(errs, ValidationError{Field: "ui.pump_interval_ms", Message: "must be between 10 and 1000"})
	}
	if c.Archive.MaxEntries < 0 {
		errs = append(errs, ValidationError{Field: "archive.max_entries", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - NOTEPAD_OLLAMA_URL: overrides ollama.url
//   - NOTEPAD_DEBUG: set to "1" or "true" to enable debug logging
//   - NOTEPAD_PUMP_MS: overrides ui.pump_interval_ms
//
// NOTEPAD_MODEL is applied to settings.json values, see ApplySettingsEnv.
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("NOTEPAD_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}
	if debug := os.Getenv("NOTEPAD_DEBUG"); debug != "" {
		c.Log.Debug = debug == "1" || strings.EqualFold(debug, "true")
	}
	if ms := os.Getenv("NOTEPAD_PUMP_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil {
			c.UI.PumpIntervalMs = n
		}
	}
}
