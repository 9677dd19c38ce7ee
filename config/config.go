// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Client configuration store for nvgrid.

package config

import (
	"sync"
)

const systemConfigName = "nvgrid.toml"

// Config stores configuration sections as TOML-compatible data.
type Config map[string]interface{}

// Section stores key/value pairs for a configuration section.
type Section map[string]interface{}

var (
	mu      sync.RWMutex
	once    sync.Once
	system  Config
	loadErr error
)

// Err returns the most recent config load error. A load error never
// leaves the store empty; defaults are always in place.
func Err() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// System returns the client configuration (nvgrid.toml).
func System() Config {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return system
}

// Reload re-reads the configuration from disk.
func Reload() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	loadErr = loadSystemLocked()
	return loadErr
}

// SetSystem replaces the in-memory configuration. The input is copied
// so later mutations by the caller do not reach the store.
func SetSystem(cfg Config) {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	cfg = cloneConfig(cfg)
	applySystemDefaults(cfg)
	system = cfg
}

func cloneConfig(cfg Config) Config {
	out := make(Config, len(cfg))
	for name, raw := range cfg {
		switch v := raw.(type) {
		case Section:
			sec := make(Section, len(v))
			for key, value := range v {
				sec[key] = value
			}
			out[name] = sec
		case map[string]interface{}:
			sec := make(Section, len(v))
			for key, value := range v {
				sec[key] = value
			}
			out[name] = sec
		default:
			out[name] = v
		}
	}
	return out
}

// SaveSystem writes the current configuration to disk.
func SaveSystem() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return writeConfig(systemConfigPath(), system)
}

func initStore() {
	mu.Lock()
	defer mu.Unlock()
	loadErr = loadSystemLocked()
}
