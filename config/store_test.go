// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

func resetStore() {
	xdg.Reload()
	once = sync.Once{}
	system = nil
	loadErr = nil
}

func TestSystemDefaultsWritten(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	cfg := System()
	if got := cfg.GetString("editor", "binary", ""); got != "nvim" {
		t.Fatalf("expected default editor binary, got %q", got)
	}

	data, err := os.ReadFile(systemConfigPath())
	if err != nil {
		t.Fatalf("read system config: %v", err)
	}

	var disk Config
	if err := toml.Unmarshal(data, &disk); err != nil {
		t.Fatalf("unmarshal system config: %v", err)
	}
	if disk.Section("display") == nil {
		t.Fatalf("expected display section to be present")
	}
	if disk.GetBool("display", "use_term_colors", true) {
		t.Fatalf("expected use_term_colors default false on disk")
	}
}

func TestSaveSystemWritesUpdates(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	SetSystem(Config{
		"editor": map[string]interface{}{
			"binary": "nvim-test",
			"args":   []interface{}{"--clean"},
		},
	})
	if err := SaveSystem(); err != nil {
		t.Fatalf("SaveSystem: %v", err)
	}

	if err := Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	cfg := System()
	if got := cfg.GetString("editor", "binary", ""); got != "nvim-test" {
		t.Fatalf("expected editor binary nvim-test, got %q", got)
	}
	args := cfg.GetStringList("editor", "args", nil)
	if len(args) != 1 || args[0] != "--clean" {
		t.Fatalf("expected args [--clean], got %v", args)
	}
}

func TestSetSystemCopiesInput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	in := Config{
		"editor": map[string]interface{}{"binary": "nvim-test"},
	}
	SetSystem(in)
	in["editor"].(map[string]interface{})["binary"] = "changed"

	if got := System().GetString("editor", "binary", ""); got != "nvim-test" {
		t.Fatalf("store aliases caller map, got %q", got)
	}
}

func TestMalformedConfigKeepsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	if err := os.MkdirAll(configRoot(), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	broken := []byte("editor = {{{")
	if err := os.WriteFile(systemConfigPath(), broken, 0o640); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := System()
	if got := cfg.GetString("editor", "binary", ""); got != "nvim" {
		t.Fatalf("expected default binary after bad config, got %q", got)
	}
	if Err() == nil {
		t.Fatalf("expected load error for malformed config")
	}

	data, err := os.ReadFile(systemConfigPath())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != string(broken) {
		t.Fatalf("malformed config was rewritten")
	}
}

func TestLoadFileOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	path := filepath.Join(t.TempDir(), "alt.toml")
	if err := os.WriteFile(path, []byte("[editor]\nbinary = \"nvim-alt\"\n"), 0o640); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	cfg := System()
	if got := cfg.GetString("editor", "binary", ""); got != "nvim-alt" {
		t.Fatalf("expected nvim-alt, got %q", got)
	}
	if cfg.Section("display") == nil {
		t.Fatalf("expected defaults applied on top of override")
	}

	if err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTypedGetterCoercions(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	SetSystem(Config{
		"display": map[string]interface{}{
			"use_term_colors": "true",
		},
		"tuning": map[string]interface{}{
			"fps":   int64(60),
			"scale": 1.5,
		},
	})
	cfg := System()

	if !cfg.GetBool("display", "use_term_colors", false) {
		t.Fatalf("expected string 'true' to coerce to bool")
	}
	if got := cfg.GetInt("tuning", "fps", 0); got != 60 {
		t.Fatalf("expected fps 60, got %d", got)
	}
	if got := cfg.GetFloat("tuning", "fps", 0); got != 60 {
		t.Fatalf("expected fps 60.0, got %v", got)
	}
	if got := cfg.GetFloat("tuning", "scale", 0); got != 1.5 {
		t.Fatalf("expected scale 1.5, got %v", got)
	}
	if got := cfg.GetInt("tuning", "missing", 7); got != 7 {
		t.Fatalf("expected default 7 for missing key, got %d", got)
	}
	if got := cfg.GetString("nosection", "key", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for missing section, got %q", got)
	}
}

func TestGetStringList(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	SetSystem(Config{
		"editor": map[string]interface{}{
			"args": []interface{}{"--clean", int64(5), "-u"},
		},
	})
	cfg := System()

	args := cfg.GetStringList("editor", "args", nil)
	if len(args) != 2 || args[0] != "--clean" || args[1] != "-u" {
		t.Fatalf("expected non-strings skipped, got %v", args)
	}
	if got := cfg.GetStringList("editor", "missing", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected default list for missing key, got %v", got)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	System()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	if _, err := Watch(ctx, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := writeConfig(systemConfigPath(), Config{
		"editor": map[string]interface{}{"binary": "nvim-test"},
	}); err != nil {
		t.Fatalf("write config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("config change not observed")
	}

	if got := System().GetString("editor", "binary", ""); got != "nvim-test" {
		t.Fatalf("expected reloaded binary nvim-test, got %q", got)
	}
}
