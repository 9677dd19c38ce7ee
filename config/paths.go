// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for nvgrid configuration.

package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

func configRoot() string {
	return filepath.Join(xdg.ConfigHome, "nvgrid")
}

func systemConfigPath() string {
	return filepath.Join(configRoot(), systemConfigName)
}
