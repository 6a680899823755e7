// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg resolves XDG Base Directory locations for authgate.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "authgate"

func baseDir(env string, fallback ...string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	return filepath.Join(append([]string{os.Getenv("HOME")}, append(fallback, appName)...)...)
}

// ConfigDir is $XDG_CONFIG_HOME/authgate, or ~/.config/authgate.
func ConfigDir() string {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DataDir is $XDG_DATA_HOME/authgate, or ~/.local/share/authgate.
func DataDir() string {
	return baseDir("XDG_DATA_HOME", ".local", "share")
}

// DefaultConfigFile returns ConfigDir()/config.yaml when that file exists,
// otherwise "".
func DefaultConfigFile() string {
	path := filepath.Join(ConfigDir(), "config.yaml")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// DefaultBoltPath is where the bolt session backend keeps its file unless
// store.bolt_path says otherwise.
func DefaultBoltPath() string {
	return filepath.Join(DataDir(), "sessions.db")
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
