// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/llm"
	"github.com/jeranaias/notepad-tui/internal/ollama"
	"github.com/jeranaias/notepad-tui/internal/pad"
	"github.com/jeranaias/notepad-tui/internal/storage"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is everything a front end needs: configuration, settings, the
// engine, the archive and the log.
type Env struct {
	Config       *config.Config
	Settings     *config.Settings
	SettingsPath string
	Logger       *log.Logger
	Client       *ollama.Client
	Engine       *llm.OllamaEngine
	// Archive is nil when archiving is disabled or the database failed to open.
	Archive *storage.Archive
	// Notice describes a startup fallback worth showing the user.
	Notice string

	logFile io.Closer
}

// Setup loads configuration and settings, opens the log and the archive,
// and checks the configured model against Ollama.
func Setup(ctx context.Context, args Args) (*Env, error) {
	env, err := setupBase(args)
	if err != nil {
		return nil, err
	}

	env.SettingsPath, err = config.PathSettings()
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Settings, err = config.LoadSettings(env.SettingsPath)
	if err != nil {
		// A broken settings file should not lock the user out.
		env.Logger.Printf("settings: %v; using defaults", err)
		env.Notice = "settings.json is invalid; using defaults"
		env.Settings = config.DefaultSettings()
	}
	config.ApplySettingsEnv(env.Settings)
	if args.Model != "" {
		env.Settings.Model.Path = args.Model
	}

	cfg := env.Config
	env.Client = ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:   cfg.Ollama.URL,
		Timeout:   time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
		KeepAlive: cfg.Ollama.KeepAlive,
	})
	env.Engine = llm.NewOllamaEngine(env.Client, env.Logger)
	env.resolveModel(ctx)

	if cfg.Archive.Enabled {
		env.openArchive()
	}
	return env, nil
}

// SetupArchive opens only the configuration, the log and the archive.
func SetupArchive(args Args) (*Env, error) {
	env, err := setupBase(args)
	if err != nil {
		return nil, err
	}
	if env.Config.Archive.Enabled {
		env.openArchive()
	}
	return env, nil
}

func setupBase(args Args) (*Env, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if args.Debug {
		cfg.Log.Debug = true
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}
	if args.NoArchive {
		cfg.Archive.Enabled = false
	}

	env := &Env{Config: cfg}
	if err := env.openLog(); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Env) openLog() error {
	e.Logger = log.New(io.Discard, "", 0)
	path, err := e.Config.LogPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	e.logFile = f
	flags := log.LstdFlags
	if e.Config.Log.Debug {
		flags |= log.Lmicroseconds | log.Lshortfile
	}
	e.Logger = log.New(f, "", flags)
	e.Logger.Printf("notepad %s starting", Version)
	return nil
}

// resolveModel falls back to the default model when the configured one is
// missing. An unreachable Ollama leaves the setting alone; the first send
// will report the failure in the transcript.
func (e *Env) resolveModel(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	wanted := e.Settings.Model.Path
	var probeErr error
	fellBack := e.Settings.ResolveModel(func(model string) bool {
		ok, err := e.Engine.HasModel(ctx, model)
		if err != nil {
			probeErr = err
			return true
		}
		return ok
	})
	switch {
	case probeErr != nil:
		e.Logger.Printf("model check skipped: %v", probeErr)
		if ollama.IsNotRunning(probeErr) {
			e.Notice = "Ollama is not running at " + e.Config.Ollama.URL
		}
	case fellBack:
		e.Logger.Printf("model %q not found, using %s", wanted, e.Settings.Model.Path)
		e.Notice = fmt.Sprintf("Model %q not found; using %s", wanted, e.Settings.Model.Path)
	}
}

func (e *Env) openArchive() {
	path, err := e.Config.ArchivePath()
	if err == nil {
		e.Archive, err = storage.Open(path, e.Config.Archive.MaxEntries)
	}
	if err != nil {
		e.Logger.Printf("archive disabled: %v", err)
		e.Archive = nil
	}
}

// NewController builds the notepad controller from the environment.
func (e *Env) NewController() *pad.Controller {
	opts := pad.Options{
		Engine:         e.Engine,
		Model:          e.Settings.Model.Path,
		System:         e.Settings.Model.Prompt,
		Sampling:       e.Config.LLMSampling(),
		HighlightStyle: e.Config.UI.HighlightStyle,
		Logger:         e.Logger,
	}
	if e.Archive != nil {
		opts.Archive = e.Archive
	}
	return pad.New(opts)
}

// SaveSettings writes settings.json.
func (e *Env) SaveSettings(s *config.Settings) {
	if s == nil {
		return
	}
	if err := config.SaveSettings(e.SettingsPath, s); err != nil {
		e.Logger.Printf("settings: %v", err)
	}
}

// Close releases the model and closes the archive and the log.
func (e *Env) Close() {
	if e.Engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := e.Engine.Release(ctx); err != nil {
			e.Logger.Printf("release: %v", err)
		}
		cancel()
	}
	if e.Archive != nil {
		if err := e.Archive.Close(); err != nil {
			e.Logger.Printf("archive: %v", err)
		}
		e.Archive = nil
	}
	if e.logFile != nil {
		e.logFile.Close()
		e.logFile = nil
	}
}
