// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/watch.go
// Summary: Filesystem watcher that reloads the config store when the
//          system config file changes on disk.

package config

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the config directory and reloads the store whenever the
// system config file is written. onChange, if non-nil, runs after each
// reload. Editors replace files via rename, so the whole directory is
// watched and events are filtered by base name.
func Watch(ctx context.Context, onChange func()) (*fsnotify.Watcher, error) {
	dir := configRoot()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	var timer *time.Timer
	debounce := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(200*time.Millisecond, func() {
			if err := Reload(); err != nil {
				log.Printf("Config: Reload after change failed: %v", err)
				return
			}
			log.Printf("Config: Reloaded %s", systemConfigPath())
			if onChange != nil {
				onChange()
			}
		})
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != systemConfigName {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("Config: Watcher error: %v", err)
			}
		}
	}()
	return w, nil
}
