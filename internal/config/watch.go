// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// SETTINGS WATCHER
// =============================================================================

// SettingsWatcher reloads settings.json when it changes on disk and hands
// the result to a callback. The parent directory is watched, not the file,
// so atomic replace-by-rename is seen.
type SettingsWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(*Settings, error)

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatchSettings starts watching path. onChange runs on the watcher's
// goroutine after changes have been quiet for debounce.
func WatchSettings(path string, debounce time.Duration, onChange func(*Settings, error)) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sw := &SettingsWatcher{
		path:     abs,
		watcher:  watcher,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}

	sw.wg.Add(2)
	go sw.processEvents()
	go sw.processPending()
	return sw, nil
}

// Close stops watching and waits for the goroutines to exit.
func (sw *SettingsWatcher) Close() error {
	sw.cancel()
	err := sw.watcher.Close()
	sw.wg.Wait()
	return err
}

func (sw *SettingsWatcher) processEvents() {
	defer sw.wg.Done()
	for {
		select {
		case <-sw.ctx.Done():
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				sw.mu.Lock()
				sw.pending = time.Now()
				sw.mu.Unlock()
			}

		case _, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (sw *SettingsWatcher) processPending() {
	defer sw.wg.Done()
	tick := sw.debounce / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-sw.ctx.Done():
			return

		case now := <-ticker.C:
			sw.mu.Lock()
			fire := !sw.pending.IsZero() && now.Sub(sw.pending) >= sw.debounce
			if fire {
				sw.pending = time.Time{}
			}
			sw.mu.Unlock()

			if fire {
				sw.onChange(LoadSettings(sw.path))
			}
		}
	}
}
