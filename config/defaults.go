// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the nvgrid configuration file.

package config

func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("editor", Section{
		"binary": "nvim",
		"args":   []interface{}{},
	})
	cfg.RegisterDefaults("display", Section{
		"use_term_colors": false,
	})
	cfg.RegisterDefaults("trace", Section{
		"enabled": false,
		"path":    "",
	})
}
